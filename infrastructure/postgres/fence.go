package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/repositories"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Lease fencing
// ═══════════════════════════════════════════════════════════════════════════════

// fencedRun query บน run row ที่ lease_token ยังตรง
func fencedRun(db *gorm.DB, lease *models.RunLease) *gorm.DB {
	return db.Model(&models.Run{}).Where("id = ? AND lease_token = ?", lease.RunID, lease.Token)
}

// checkFenced 0 rows = lease ถูก claim ไปแล้ว
func checkFenced(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrLeaseLost
	}
	return nil
}

// withLease รัน fn ใน transaction ที่ถือ SHARE lock บน run row
// ClaimLease ของ executor อื่นต้องรอจน transaction นี้ commit
func withLease(ctx context.Context, db *gorm.DB, lease *models.RunLease, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run models.Run
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("id = ? AND lease_token = ?", lease.RunID, lease.Token).
			Take(&run).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repositories.ErrLeaseLost
		}
		if err != nil {
			return err
		}
		return fn(tx)
	})
}

// notFound แปลง gorm.ErrRecordNotFound เป็น repositories.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

// checkUpdated 0 rows ของ child row = ไม่พบ
func checkUpdated(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
