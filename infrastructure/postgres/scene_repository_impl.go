package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

type SceneRepositoryImpl struct {
	db *gorm.DB
}

func NewSceneRepository(db *gorm.DB) repositories.SceneRepository {
	return &SceneRepositoryImpl{db: db}
}

func (r *SceneRepositoryImpl) ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.Scene, error) {
	var scenes []*models.Scene
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("scene_index ASC").
		Find(&scenes).Error
	return scenes, err
}

// ReplaceForRun ลบ scenes เดิมของ run แล้วสร้างชุดใหม่ (blueprint ใหม่)
func (r *SceneRepositoryImpl) ReplaceForRun(ctx context.Context, lease *models.RunLease, scenes []*models.Scene) error {
	return withLease(ctx, r.db, lease, func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", lease.RunID).Delete(&models.Scene{}).Error; err != nil {
			return err
		}
		if len(scenes) == 0 {
			return nil
		}
		return tx.Create(&scenes).Error
	})
}

func (r *SceneRepositoryImpl) update(ctx context.Context, lease *models.RunLease, id uuid.UUID, updates map[string]interface{}) error {
	return withLease(ctx, r.db, lease, func(tx *gorm.DB) error {
		res := tx.Model(&models.Scene{}).
			Where("id = ? AND run_id = ?", id, lease.RunID).
			Updates(updates)
		return checkUpdated(res)
	})
}

// MarkProcessing บันทึก job id ทันทีหลัง submit (resume poll ได้ถ้า process ตาย)
func (r *SceneRepositoryImpl) MarkProcessing(ctx context.Context, lease *models.RunLease, id uuid.UUID, jobID string) error {
	return r.update(ctx, lease, id, map[string]interface{}{
		"status":          models.SceneStatusProcessing,
		"external_job_id": jobID,
		"attempts":        gorm.Expr("attempts + 1"),
		"submitted_at":    time.Now().UTC(),
		"failure_reason":  "",
	})
}

func (r *SceneRepositoryImpl) MarkReady(ctx context.Context, lease *models.RunLease, id uuid.UUID, videoURL string) error {
	return r.update(ctx, lease, id, map[string]interface{}{
		"status":           models.SceneStatusReady,
		"runway_video_url": videoURL,
		"completed_at":     time.Now().UTC(),
	})
}

func (r *SceneRepositoryImpl) MarkFailed(ctx context.Context, lease *models.RunLease, id uuid.UUID, reason string) error {
	return r.update(ctx, lease, id, map[string]interface{}{
		"status":         models.SceneStatusFailed,
		"failure_reason": reason,
		"completed_at":   time.Now().UTC(),
	})
}
