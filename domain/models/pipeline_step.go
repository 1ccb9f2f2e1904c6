package models

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStep append-only log หนึ่งแถวต่อ stage ต่อ attempt
// orchestrator ไม่อ่าน table นี้เพื่อตัดสินใจ control flow
type PipelineStep struct {
	ID         uuid.UUID   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RunID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_step_run_attempt_layer"`
	Attempt    int         `gorm:"not null;uniqueIndex:idx_step_run_attempt_layer"`
	Layer      Layer       `gorm:"not null;uniqueIndex:idx_step_run_attempt_layer"`
	Step       string      `gorm:"size:50;not null"`
	DurationMs int64       `gorm:"default:0"`
	Payload    StepPayload `gorm:"type:jsonb;default:'{}'"`
	CreatedAt  time.Time
}

func (PipelineStep) TableName() string {
	return "pipeline_steps"
}
