package ports

import "context"

// ═══════════════════════════════════════════════════════════════════════════════
// Notifier Port - สำหรับส่งการแจ้งเตือน (Telegram)
// ═══════════════════════════════════════════════════════════════════════════════

type NotifierPort interface {
	// SendRunReadyAlert แจ้งเมื่อ run ready
	SendRunReadyAlert(ctx context.Context, runID, videoURL string, durationSeconds float64) error

	// SendRunFailedAlert แจ้งเมื่อ run failed
	SendRunFailedAlert(ctx context.Context, runID string, layer int, errorMsg string) error

	IsEnabled() bool
}
