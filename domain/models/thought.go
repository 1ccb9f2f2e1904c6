package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxThoughtLength ความยาวสูงสุดของ thought ที่ผู้ใช้ส่งเข้ามา
const MaxThoughtLength = 1000

// Thought prompt ต้นทางของ run
type Thought struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Thought) TableName() string {
	return "thoughts"
}
