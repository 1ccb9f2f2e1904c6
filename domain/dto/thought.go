package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateThoughtRequest max=1000 คือ user-facing cap ของ prompt
type CreateThoughtRequest struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}

type ThoughtResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
