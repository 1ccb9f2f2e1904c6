package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

// TriggerResult ผลของการ trigger
// Started=false หมายถึง no-op (มี executor อื่นถือ lease อยู่ หรือ run ready แล้ว)
type TriggerResult struct {
	Run        *models.Run
	Started    bool
	StartLayer models.Layer
	Attempt    int
}

// PipelineService Pipeline Orchestrator
type PipelineService interface {
	// Trigger upsert run ของ thought, claim lease แล้วรัน pipeline ใน background
	// คืนทันทีโดยไม่รอ pipeline
	Trigger(ctx context.Context, thoughtID uuid.UUID, regenerate bool) (*TriggerResult, error)

	// RunPipeline รัน pipeline แบบ synchronous (ใช้โดย Trigger และ stale run auto-resume)
	// ไม่คืน error ของ stage ; ทุก failure ถูกบันทึกลง run state
	RunPipeline(ctx context.Context, runID uuid.UUID) (*TriggerResult, error)

	// GetRunStatus อ่านอย่างเดียว ไม่มี side effect
	GetRunStatus(ctx context.Context, runID uuid.UUID) (*dto.RunStatusResponse, error)
	GetRunHistory(ctx context.Context, runID uuid.UUID) (*dto.RunHistoryResponse, error)
	ListRuns(ctx context.Context, status models.RunStatus, offset, limit int) ([]*models.Run, int64, error)

	// Wait รอ background pipelines ทั้งหมด
	Wait()
	// Shutdown cancel pipelines ที่ยังทำงานอยู่ (ถูก mark failed) แล้วรอจนเสร็จหรือ ctx หมดเวลา
	Shutdown(ctx context.Context) error
}
