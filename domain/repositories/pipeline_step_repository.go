package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

type PipelineStepRepository interface {
	// Append insert-only, ซ้ำ (run, attempt, layer) จะถูกข้าม
	Append(ctx context.Context, lease *models.RunLease, step *models.PipelineStep) error
	// ListByRun เรียงตามเวลาที่บันทึก
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.PipelineStep, error)
}
