package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
)

// ErrThoughtTooLong เกิน cap ที่ผู้ใช้เห็น
var ErrThoughtTooLong = fmt.Errorf("thought exceeds %d characters", models.MaxThoughtLength)

// ErrThoughtEmpty ไม่มีเนื้อหา
var ErrThoughtEmpty = errors.New("thought is empty")

type ThoughtServiceImpl struct {
	thoughtRepo repositories.ThoughtRepository
}

func NewThoughtService(thoughtRepo repositories.ThoughtRepository) services.ThoughtService {
	return &ThoughtServiceImpl{thoughtRepo: thoughtRepo}
}

// CreateThought ตรวจ cap ก่อนเข้า pipeline (ไม่ตรวจใน stage executor)
func (s *ThoughtServiceImpl) CreateThought(ctx context.Context, userID uuid.UUID, req *dto.CreateThoughtRequest) (*models.Thought, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrThoughtEmpty
	}
	if utf8.RuneCountInString(content) > models.MaxThoughtLength {
		return nil, ErrThoughtTooLong
	}

	thought := &models.Thought{
		ID:      uuid.New(),
		UserID:  userID,
		Content: content,
	}
	if err := s.thoughtRepo.Create(ctx, thought); err != nil {
		return nil, err
	}
	return thought, nil
}

func (s *ThoughtServiceImpl) GetThought(ctx context.Context, id uuid.UUID) (*models.Thought, error) {
	thought, err := s.thoughtRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrThoughtNotFound
		}
		return nil, err
	}
	return thought, nil
}
