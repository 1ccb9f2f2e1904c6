package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

type SceneRepository interface {
	// ListByRun เรียงตาม scene_index
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.Scene, error)
	ReplaceForRun(ctx context.Context, lease *models.RunLease, scenes []*models.Scene) error
	// MarkProcessing บันทึก external job id ทันทีหลัง submit
	MarkProcessing(ctx context.Context, lease *models.RunLease, sceneID uuid.UUID, externalJobID string) error
	MarkReady(ctx context.Context, lease *models.RunLease, sceneID uuid.UUID, videoURL string) error
	MarkFailed(ctx context.Context, lease *models.RunLease, sceneID uuid.UUID, reason string) error
}
