package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

type NarrationRepositoryImpl struct {
	db *gorm.DB
}

func NewNarrationRepository(db *gorm.DB) repositories.NarrationRepository {
	return &NarrationRepositoryImpl{db: db}
}

func (r *NarrationRepositoryImpl) ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.NarrationSegment, error) {
	var segments []*models.NarrationSegment
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Find(&segments).Error
	return segments, err
}

func (r *NarrationRepositoryImpl) ReplaceForRun(ctx context.Context, lease *models.RunLease, segments []*models.NarrationSegment) error {
	return withLease(ctx, r.db, lease, func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", lease.RunID).Delete(&models.NarrationSegment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(&segments).Error
	})
}

func (r *NarrationRepositoryImpl) update(ctx context.Context, lease *models.RunLease, id uuid.UUID, updates map[string]interface{}) error {
	return withLease(ctx, r.db, lease, func(tx *gorm.DB) error {
		res := tx.Model(&models.NarrationSegment{}).
			Where("id = ? AND run_id = ?", id, lease.RunID).
			Updates(updates)
		return checkUpdated(res)
	})
}

func (r *NarrationRepositoryImpl) MarkProcessing(ctx context.Context, lease *models.RunLease, id uuid.UUID) error {
	return r.update(ctx, lease, id, map[string]interface{}{
		"status":         models.SegmentStatusProcessing,
		"failure_reason": "",
	})
}

func (r *NarrationRepositoryImpl) MarkReady(ctx context.Context, lease *models.RunLease, id uuid.UUID, audioURL string, durationSeconds float64) error {
	return r.update(ctx, lease, id, map[string]interface{}{
		"status":           models.SegmentStatusReady,
		"audio_url":        audioURL,
		"duration_seconds": durationSeconds,
	})
}

func (r *NarrationRepositoryImpl) MarkFailed(ctx context.Context, lease *models.RunLease, id uuid.UUID, reason string) error {
	return r.update(ctx, lease, id, map[string]interface{}{
		"status":         models.SegmentStatusFailed,
		"failure_reason": reason,
	})
}
