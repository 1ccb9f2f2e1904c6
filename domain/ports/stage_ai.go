package ports

import (
	"context"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

// StageInput context สะสมที่ส่งให้แต่ละ stage
type StageInput struct {
	Thought       string
	Understanding *models.Understanding
	Perspective   *models.Perspective
	Blueprint     *models.Blueprint
	MaxScenes     int
}

// StageAIPort generative calls ของ layer 1-4
type StageAIPort interface {
	Understand(ctx context.Context, in *StageInput) (*models.Understanding, error)
	Perspective(ctx context.Context, in *StageInput) (*models.Perspective, error)
	Blueprint(ctx context.Context, in *StageInput) (*models.Blueprint, error)
	NarrationScript(ctx context.Context, in *StageInput) (*models.NarrationScript, error)
}
