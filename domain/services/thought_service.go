package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

type ThoughtService interface {
	CreateThought(ctx context.Context, userID uuid.UUID, req *dto.CreateThoughtRequest) (*models.Thought, error)
	GetThought(ctx context.Context, id uuid.UUID) (*models.Thought, error)
}
