package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus สถานะของ run (ค่า string เป็น contract กับ polling clients ห้ามเปลี่ยน)
type RunStatus string

const (
	RunStatusPending       RunStatus = "pending"
	RunStatusUnderstanding RunStatus = "understanding" // layer 1-2
	RunStatusBlueprint     RunStatus = "blueprint"     // layer 3-5
	RunStatusGenerating    RunStatus = "generating"    // layer 6
	RunStatusAssembling    RunStatus = "assembling"    // layer 7
	RunStatusReady         RunStatus = "ready"
	RunStatusFailed        RunStatus = "failed"
)

// Layer ลำดับ stage ของ pipeline (1..7), 0 = ยังไม่ได้เริ่ม layer ใด
type Layer int

const (
	LayerNone            Layer = 0
	LayerUnderstanding   Layer = 1
	LayerPerspective     Layer = 2
	LayerBlueprint       Layer = 3
	LayerNarrationScript Layer = 4
	LayerNarrationAudio  Layer = 5
	LayerGeneration      Layer = 6
	LayerAssembly        Layer = 7
)

// AllLayers ลำดับการทำงานของ pipeline
var AllLayers = []Layer{
	LayerUnderstanding,
	LayerPerspective,
	LayerBlueprint,
	LayerNarrationScript,
	LayerNarrationAudio,
	LayerGeneration,
	LayerAssembly,
}

// LayerForStatus แปลง status เป็น layer
// ใช้ร่วมกันทั้ง orchestrator (resume) และ status endpoint (progress)
func LayerForStatus(s RunStatus) Layer {
	switch s {
	case RunStatusUnderstanding:
		return LayerUnderstanding
	case RunStatusBlueprint:
		return LayerBlueprint
	case RunStatusGenerating:
		return LayerGeneration
	case RunStatusAssembling, RunStatusReady:
		return LayerAssembly
	default:
		// pending, failed, unknown
		return LayerNone
	}
}

// StatusForLayer status ที่มองเห็นจากภายนอกขณะ layer นั้นทำงาน
func StatusForLayer(l Layer) RunStatus {
	switch {
	case l >= LayerAssembly:
		return RunStatusAssembling
	case l == LayerGeneration:
		return RunStatusGenerating
	case l >= LayerBlueprint:
		return RunStatusBlueprint
	case l >= LayerUnderstanding:
		return RunStatusUnderstanding
	default:
		return RunStatusPending
	}
}

// StageName ชื่อ stage ที่ใช้ใน step log และ error message
func (l Layer) StageName() string {
	switch l {
	case LayerUnderstanding:
		return "understanding"
	case LayerPerspective:
		return "perspective"
	case LayerBlueprint:
		return "blueprint"
	case LayerNarrationScript:
		return "narration_script"
	case LayerNarrationAudio:
		return "narration_audio"
	case LayerGeneration:
		return "scene_generation"
	case LayerAssembly:
		return "assembly"
	default:
		return "none"
	}
}

// Valid ตรวจสอบว่าอยู่ในช่วง 1..7
func (l Layer) Valid() bool {
	return l >= LayerUnderstanding && l <= LayerAssembly
}

// IsTerminal ready หรือ failed
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusReady || s == RunStatusFailed
}

// IsActive กำลังอยู่ระหว่าง stage ใด stage หนึ่ง
func (s RunStatus) IsActive() bool {
	return !s.IsTerminal() && s != RunStatusPending
}

// Run หนึ่ง run ต่อหนึ่ง thought (upsert key = thought_id)
type Run struct {
	ID            uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ThoughtID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Status        RunStatus `gorm:"size:20;default:'pending';index"`
	CurrentLayer  Layer     `gorm:"default:0"`
	ErrorLayer    *Layer
	ErrorMessage  string  `gorm:"type:text"`
	FinalVideoURL string  `gorm:"type:text"`
	ThumbnailURL  string  `gorm:"type:text"`
	TotalDuration float64 `gorm:"default:0"` // วินาที

	// Stage artifacts
	Understanding   *Understanding   `gorm:"type:jsonb"`
	Perspective     *Perspective     `gorm:"type:jsonb"`
	Blueprint       *Blueprint       `gorm:"type:jsonb"`
	NarrationScript *NarrationScript `gorm:"type:jsonb"`

	// Single-flight lease
	Attempt        int        `gorm:"default:0"`
	LeaseToken     *uuid.UUID `gorm:"type:uuid"`
	LeaseExpiresAt *time.Time `gorm:"type:timestamptz;index"`

	StartedAt   *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	Thought           *Thought            `gorm:"foreignKey:ThoughtID"`
	Scenes            []*Scene            `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	NarrationSegments []*NarrationSegment `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (Run) TableName() string {
	return "runs"
}

// IsReady ตรวจสอบว่า run เสร็จแล้ว
func (r *Run) IsReady() bool {
	return r.Status == RunStatusReady
}

// IsFailed ตรวจสอบว่า run ล้มเหลว
func (r *Run) IsFailed() bool {
	return r.Status == RunStatusFailed
}

// HasLiveLease มี executor ถือ lease อยู่และยังไม่หมดอายุ
func (r *Run) HasLiveLease(now time.Time) bool {
	return r.LeaseToken != nil && r.LeaseExpiresAt != nil && r.LeaseExpiresAt.After(now)
}

// ResumeLayer หา layer ที่จะเริ่มทำงาน
// เริ่มที่ generating ถ้ามี scene ที่ ready พร้อม URL หรือ scene ที่ submit แล้วรอผลอยู่
// (มี blueprint แล้ว) เพื่อไม่ให้ blueprint ใหม่ลบ job id เดิมทิ้ง
func (r *Run) ResumeLayer(scenes []*Scene) Layer {
	if r.Status == RunStatusReady {
		return LayerUnderstanding
	}
	for _, s := range scenes {
		if s.IsReusable() {
			return LayerGeneration
		}
		if s.IsInFlight() && r.Blueprint != nil {
			return LayerGeneration
		}
	}
	return LayerUnderstanding
}

// RunLease lease ที่ executor ถืออยู่ ใช้ fence ทุก write ของ attempt นั้น
type RunLease struct {
	RunID   uuid.UUID
	Token   uuid.UUID
	Attempt int
}
