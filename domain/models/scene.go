package models

import (
	"time"

	"github.com/google/uuid"
)

// SceneStatus สถานะของ scene
type SceneStatus string

const (
	SceneStatusPending    SceneStatus = "pending"
	SceneStatusProcessing SceneStatus = "processing" // submit แล้ว มี external_job_id
	SceneStatusReady      SceneStatus = "ready"
	SceneStatusFailed     SceneStatus = "failed"
)

// Scene หนึ่ง scene ของ blueprint (ลำดับ assemble ตาม scene_index)
type Scene struct {
	ID             uuid.UUID   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RunID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_scene_run_index"`
	SceneIndex     int         `gorm:"not null;uniqueIndex:idx_scene_run_index"`
	Description    string      `gorm:"type:text"`
	Status         SceneStatus `gorm:"size:20;default:'pending'"`
	RunwayPrompt   string      `gorm:"type:text"`
	RunwayVideoURL string      `gorm:"type:text"`
	ExternalJobID  string      `gorm:"size:100"`
	FailureReason  string      `gorm:"type:text"`
	Attempts       int         `gorm:"default:0"` // จำนวนครั้งที่ submit

	SubmittedAt *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Scene) TableName() string {
	return "scenes"
}

// IsReusable ready และมี URL แล้ว ห้าม generate ซ้ำ
func (s *Scene) IsReusable() bool {
	return s.Status == SceneStatusReady && s.RunwayVideoURL != ""
}

// IsInFlight submit ไปแล้วและยังรอผล (resume ได้ด้วยการ poll job เดิม)
func (s *Scene) IsInFlight() bool {
	return s.Status == SceneStatusProcessing && s.ExternalJobID != ""
}

// IsTerminal ready หรือ failed
func (s *Scene) IsTerminal() bool {
	return s.Status == SceneStatusReady || s.Status == SceneStatusFailed
}
