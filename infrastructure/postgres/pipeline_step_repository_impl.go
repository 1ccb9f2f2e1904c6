package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

type PipelineStepRepositoryImpl struct {
	db *gorm.DB
}

func NewPipelineStepRepository(db *gorm.DB) repositories.PipelineStepRepository {
	return &PipelineStepRepositoryImpl{db: db}
}

// Append (run_id, attempt, layer) ซ้ำจะถูกข้าม
func (r *PipelineStepRepositoryImpl) Append(ctx context.Context, lease *models.RunLease, step *models.PipelineStep) error {
	if step.ID == uuid.Nil {
		step.ID = uuid.New()
	}
	if step.Payload == nil {
		step.Payload = models.StepPayload{}
	}
	return withLease(ctx, r.db, lease, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "attempt"}, {Name: "layer"}},
			DoNothing: true,
		}).Create(step).Error
	})
}

func (r *PipelineStepRepositoryImpl) ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.PipelineStep, error) {
	var steps []*models.PipelineStep
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("attempt ASC, layer ASC").
		Find(&steps).Error
	return steps, err
}
