package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

// RunArtifacts artifacts ที่จะบันทึก (เฉพาะ field ที่ไม่ nil)
type RunArtifacts struct {
	Understanding   *models.Understanding
	Perspective     *models.Perspective
	Blueprint       *models.Blueprint
	NarrationScript *models.NarrationScript
}

// IsEmpty ไม่มี artifact ให้บันทึก
func (a RunArtifacts) IsEmpty() bool {
	return a.Understanding == nil && a.Perspective == nil && a.Blueprint == nil && a.NarrationScript == nil
}

// RunResult ผลลัพธ์สุดท้ายของ run ที่ ready
type RunResult struct {
	FinalVideoURL string
	ThumbnailURL  string
	TotalDuration float64
}

// RunRepository Run State Store
// ทุก method ที่รับ lease จะ write เฉพาะเมื่อ lease_token ยังตรง ไม่ตรงคืน ErrLeaseLost
type RunRepository interface {
	// GetOrCreateForThought upsert ตาม thought_id (หนึ่ง run ต่อหนึ่ง thought)
	GetOrCreateForThought(ctx context.Context, thoughtID uuid.UUID) (*models.Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error)
	// GetWithDetails preload scenes (เรียงตาม scene_index) และ narration segments
	GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Run, error)
	List(ctx context.Context, status models.RunStatus, offset, limit int) ([]*models.Run, int64, error)

	// ClaimLease conditional update: สำเร็จเฉพาะเมื่อไม่มี lease ที่ยังไม่หมดอายุ
	// และ run ยังไม่ ready (ยกเว้น allowReady สำหรับ regenerate)
	// คืน claimed=false (ไม่ใช่ error) เมื่อ claim ไม่ได้
	ClaimLease(ctx context.Context, runID uuid.UUID, ttl time.Duration, allowReady bool) (*models.RunLease, bool, error)
	RenewLease(ctx context.Context, lease *models.RunLease, ttl time.Duration) error
	ReleaseLease(ctx context.Context, lease *models.RunLease) error

	UpdateStatus(ctx context.Context, lease *models.RunLease, status models.RunStatus, layer models.Layer) error
	SaveArtifacts(ctx context.Context, lease *models.RunLease, artifacts RunArtifacts) error
	// MarkFailed layer = LayerNone จะบันทึก error_layer เป็น NULL
	MarkFailed(ctx context.Context, lease *models.RunLease, layer models.Layer, message string) error
	MarkReady(ctx context.Context, lease *models.RunLease, result RunResult) error
	// ResetForRegenerate ล้าง artifacts, scenes, narration ของ run ที่ ready เพื่อเริ่มใหม่
	ResetForRegenerate(ctx context.Context, lease *models.RunLease) error

	// GetStale runs ที่ยังถือ lease แต่ lease หมดอายุแล้ว (process ตาย)
	GetStale(ctx context.Context, now time.Time, limit int) ([]*models.Run, error)
	// MarkInterrupted mark failed เฉพาะเมื่อ lease เดิมยังค้างอยู่และหมดอายุ
	MarkInterrupted(ctx context.Context, runID uuid.UUID, staleToken uuid.UUID, layer models.Layer, message string) (bool, error)
}
