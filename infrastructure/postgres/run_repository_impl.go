package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

type RunRepositoryImpl struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) repositories.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// GetOrCreateForThought insert ... on conflict do nothing แล้วอ่านกลับ (ปลอดภัยเมื่อ trigger พร้อมกัน)
func (r *RunRepositoryImpl) GetOrCreateForThought(ctx context.Context, thoughtID uuid.UUID) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.New(),
		ThoughtID: thoughtID,
		Status:    models.RunStatusPending,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thought_id"}},
			DoNothing: true,
		}).
		Create(run).Error
	if err != nil {
		return nil, err
	}

	var existing models.Run
	if err := r.db.WithContext(ctx).Where("thought_id = ?", thoughtID).First(&existing).Error; err != nil {
		return nil, notFound(err)
	}
	return &existing, nil
}

func (r *RunRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	var run models.Run
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

func (r *RunRepositoryImpl) GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	var run models.Run
	err := r.db.WithContext(ctx).
		Preload("Scenes", func(db *gorm.DB) *gorm.DB {
			return db.Order("scene_index ASC")
		}).
		Preload("NarrationSegments").
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

func (r *RunRepositoryImpl) List(ctx context.Context, status models.RunStatus, offset, limit int) ([]*models.Run, int64, error) {
	var runs []*models.Run
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Run{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&runs).Error
	return runs, total, err
}

// ═══════════════════════════════════════════════════════════════════════════════
// Lease
// ═══════════════════════════════════════════════════════════════════════════════

func (r *RunRepositoryImpl) ClaimLease(ctx context.Context, runID uuid.UUID, ttl time.Duration, allowReady bool) (*models.RunLease, bool, error) {
	now := time.Now().UTC()
	token := uuid.New()

	query := r.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ?", runID).
		Where("(lease_token IS NULL OR lease_expires_at < ?)", now)
	if !allowReady {
		query = query.Where("status <> ?", models.RunStatusReady)
	}

	res := query.Updates(map[string]interface{}{
		"lease_token":      token,
		"lease_expires_at": now.Add(ttl),
		"attempt":          gorm.Expr("attempt + 1"),
		"status":           models.RunStatusPending,
		"current_layer":    models.LayerNone,
		"error_layer":      nil,
		"error_message":    "",
		"started_at":       now,
		"completed_at":     nil,
	})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, runID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	var attempts []int
	err := r.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ? AND lease_token = ?", runID, token).
		Pluck("attempt", &attempts).Error
	if err != nil {
		return nil, false, err
	}
	if len(attempts) == 0 {
		// ถูก claim ต่อทันทีหลังเรา (lease หมดอายุระหว่างทาง)
		return nil, false, nil
	}
	return &models.RunLease{RunID: runID, Token: token, Attempt: attempts[0]}, true, nil
}

func (r *RunRepositoryImpl) RenewLease(ctx context.Context, lease *models.RunLease, ttl time.Duration) error {
	res := fencedRun(r.db.WithContext(ctx), lease).
		UpdateColumn("lease_expires_at", time.Now().UTC().Add(ttl))
	return checkFenced(res)
}

func (r *RunRepositoryImpl) ReleaseLease(ctx context.Context, lease *models.RunLease) error {
	res := fencedRun(r.db.WithContext(ctx), lease).
		UpdateColumns(map[string]interface{}{
			"lease_token":      nil,
			"lease_expires_at": nil,
		})
	return checkFenced(res)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Fenced writes
// ═══════════════════════════════════════════════════════════════════════════════

func (r *RunRepositoryImpl) UpdateStatus(ctx context.Context, lease *models.RunLease, status models.RunStatus, layer models.Layer) error {
	res := fencedRun(r.db.WithContext(ctx), lease).
		Updates(map[string]interface{}{
			"status":        status,
			"current_layer": layer,
		})
	return checkFenced(res)
}

func (r *RunRepositoryImpl) SaveArtifacts(ctx context.Context, lease *models.RunLease, artifacts repositories.RunArtifacts) error {
	updates := map[string]interface{}{}
	if artifacts.Understanding != nil {
		updates["understanding"] = artifacts.Understanding
	}
	if artifacts.Perspective != nil {
		updates["perspective"] = artifacts.Perspective
	}
	if artifacts.Blueprint != nil {
		updates["blueprint"] = artifacts.Blueprint
	}
	if artifacts.NarrationScript != nil {
		updates["narration_script"] = artifacts.NarrationScript
	}
	if len(updates) == 0 {
		return nil
	}

	res := fencedRun(r.db.WithContext(ctx), lease).Updates(updates)
	return checkFenced(res)
}

func (r *RunRepositoryImpl) MarkFailed(ctx context.Context, lease *models.RunLease, layer models.Layer, message string) error {
	var errorLayer interface{}
	if layer != models.LayerNone {
		errorLayer = layer
	}

	res := fencedRun(r.db.WithContext(ctx), lease).
		Updates(map[string]interface{}{
			"status":        models.RunStatusFailed,
			"error_layer":   errorLayer,
			"error_message": message,
			"completed_at":  time.Now().UTC(),
		})
	return checkFenced(res)
}

func (r *RunRepositoryImpl) MarkReady(ctx context.Context, lease *models.RunLease, result repositories.RunResult) error {
	res := fencedRun(r.db.WithContext(ctx), lease).
		Updates(map[string]interface{}{
			"status":          models.RunStatusReady,
			"current_layer":   models.LayerAssembly,
			"final_video_url": result.FinalVideoURL,
			"thumbnail_url":   result.ThumbnailURL,
			"total_duration":  result.TotalDuration,
			"error_layer":     nil,
			"error_message":   "",
			"completed_at":    time.Now().UTC(),
		})
	return checkFenced(res)
}

func (r *RunRepositoryImpl) ResetForRegenerate(ctx context.Context, lease *models.RunLease) error {
	return withLease(ctx, r.db, lease, func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", lease.RunID).Delete(&models.Scene{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", lease.RunID).Delete(&models.NarrationSegment{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Run{}).
			Where("id = ?", lease.RunID).
			Updates(map[string]interface{}{
				"understanding":    nil,
				"perspective":      nil,
				"blueprint":        nil,
				"narration_script": nil,
				"final_video_url":  "",
				"thumbnail_url":    "",
				"total_duration":   0,
			}).Error
	})
}

// ═══════════════════════════════════════════════════════════════════════════════
// Stale run detection
// ═══════════════════════════════════════════════════════════════════════════════

func (r *RunRepositoryImpl) GetStale(ctx context.Context, now time.Time, limit int) ([]*models.Run, error) {
	var runs []*models.Run
	err := r.db.WithContext(ctx).
		Where("lease_token IS NOT NULL AND lease_expires_at < ?", now).
		Where("status NOT IN ?", []models.RunStatus{models.RunStatusReady, models.RunStatusFailed}).
		Order("lease_expires_at ASC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (r *RunRepositoryImpl) MarkInterrupted(ctx context.Context, runID uuid.UUID, staleToken uuid.UUID, layer models.Layer, message string) (bool, error) {
	var errorLayer interface{}
	if layer != models.LayerNone {
		errorLayer = layer
	}

	res := r.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ? AND lease_token = ? AND lease_expires_at < ?", runID, staleToken, time.Now().UTC()).
		Updates(map[string]interface{}{
			"status":           models.RunStatusFailed,
			"error_layer":      errorLayer,
			"error_message":    message,
			"lease_token":      nil,
			"lease_expires_at": nil,
			"completed_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
