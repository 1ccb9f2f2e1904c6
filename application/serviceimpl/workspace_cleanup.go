package serviceimpl

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/scheduler"
)

// WorkspaceCleanupService ลบ temp workspace ของ assembler ที่ค้าง (process ตายก่อน RemoveAll)
type WorkspaceCleanupService struct {
	root      string
	maxAge    time.Duration
	scheduler scheduler.EventScheduler
	now       func() time.Time
}

func NewWorkspaceCleanupService(root string, maxAge time.Duration, eventScheduler scheduler.EventScheduler) *WorkspaceCleanupService {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &WorkspaceCleanupService{
		root:      root,
		maxAge:    maxAge,
		scheduler: eventScheduler,
		now:       time.Now,
	}
}

// RegisterCleanupJob รันวันละครั้ง 03:00 UTC
func (s *WorkspaceCleanupService) RegisterCleanupJob() error {
	return s.scheduler.AddJob("workspace_cleanup", "0 3 * * *", func() {
		s.Cleanup(context.Background())
	})
}

// Cleanup คืนจำนวน directory ที่ลบ
func (s *WorkspaceCleanupService) Cleanup(ctx context.Context) int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnContext(ctx, "Failed to read workspace root", "root", s.root, "error", err)
		}
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.WarnContext(ctx, "Failed to remove stale workspace", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.InfoContext(ctx, "Workspace cleanup completed", "removed", removed)
	}
	return removed
}
