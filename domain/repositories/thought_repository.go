package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

type ThoughtRepository interface {
	Create(ctx context.Context, thought *models.Thought) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Thought, error)
}
