package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

type NarrationRepository interface {
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.NarrationSegment, error)
	ReplaceForRun(ctx context.Context, lease *models.RunLease, segments []*models.NarrationSegment) error
	MarkProcessing(ctx context.Context, lease *models.RunLease, segmentID uuid.UUID) error
	MarkReady(ctx context.Context, lease *models.RunLease, segmentID uuid.UUID, audioURL string, durationSeconds float64) error
	MarkFailed(ctx context.Context, lease *models.RunLease, segmentID uuid.UUID, reason string) error
}
