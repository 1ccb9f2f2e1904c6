package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

type ThoughtRepositoryImpl struct {
	db *gorm.DB
}

func NewThoughtRepository(db *gorm.DB) repositories.ThoughtRepository {
	return &ThoughtRepositoryImpl{db: db}
}

func (r *ThoughtRepositoryImpl) Create(ctx context.Context, thought *models.Thought) error {
	return r.db.WithContext(ctx).Create(thought).Error
}

func (r *ThoughtRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Thought, error) {
	var thought models.Thought
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&thought).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &thought, nil
}
