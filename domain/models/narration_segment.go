package models

import (
	"time"

	"github.com/google/uuid"
)

// Segment types ของ narration
const (
	SegmentValidation  = "validation"
	SegmentPerspective = "perspective"
	SegmentAgency      = "agency"
)

// SegmentTypes ลำดับของ narration ใน video
var SegmentTypes = []string{SegmentValidation, SegmentPerspective, SegmentAgency}

// SegmentStatus สถานะของ narration segment
type SegmentStatus string

const (
	SegmentStatusPending    SegmentStatus = "pending"
	SegmentStatusProcessing SegmentStatus = "processing"
	SegmentStatusReady      SegmentStatus = "ready"
	SegmentStatusFailed     SegmentStatus = "failed"
)

type NarrationSegment struct {
	ID              uuid.UUID     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RunID           uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_narration_run_type"`
	SegmentType     string        `gorm:"size:30;not null;uniqueIndex:idx_narration_run_type"`
	Text            string        `gorm:"type:text"`
	Status          SegmentStatus `gorm:"size:20;default:'pending'"`
	AudioURL        string        `gorm:"type:text"`
	FailureReason   string        `gorm:"type:text"`
	DurationSeconds float64       `gorm:"default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (NarrationSegment) TableName() string {
	return "narration_segments"
}

// IsReady มี audio พร้อมใช้
func (n *NarrationSegment) IsReady() bool {
	return n.Status == SegmentStatusReady && n.AudioURL != ""
}

// SegmentOrder ตำแหน่งของ segment type ใน video (-1 ถ้าไม่รู้จัก)
func SegmentOrder(segmentType string) int {
	for i, t := range SegmentTypes {
		if t == segmentType {
			return i
		}
	}
	return -1
}
