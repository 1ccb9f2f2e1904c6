package ports

import "context"

// ═══════════════════════════════════════════════════════════════════════════════
// Progress Publisher Port - ส่ง progress ของ run
// ═══════════════════════════════════════════════════════════════════════════════

// Progress event types
const (
	ProgressStage    = "stage"    // เริ่ม/จบ stage
	ProgressScene    = "scene"    // scene เปลี่ยนสถานะ
	ProgressTerminal = "terminal" // run ready / failed
)

// RunProgress - Plain struct (ไม่มี NATS dependency)
type RunProgress struct {
	RunID        string  `json:"run_id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Layer        int     `json:"layer"`
	Stage        string  `json:"stage,omitempty"`
	SceneIndex   *int    `json:"scene_index,omitempty"`
	SceneStatus  string  `json:"scene_status,omitempty"`
	Progress     float64 `json:"progress"` // 0-100
	Message      string  `json:"message,omitempty"`
	Error        string  `json:"error,omitempty"`
	VideoURL     string  `json:"video_url,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

// ProgressPublisherPort - Interface สำหรับส่ง progress
type ProgressPublisherPort interface {
	PublishProgress(ctx context.Context, progress *RunProgress) error
}

// ═══════════════════════════════════════════════════════════════════════════════
// Progress Subscriber Port
// ═══════════════════════════════════════════════════════════════════════════════

type ProgressHandler func(progress *RunProgress)

// ProgressSubscriberPort รับ ctx เพื่อให้ cancel subscription ผ่าน context ได้
type ProgressSubscriberPort interface {
	Subscribe(ctx context.Context, handler ProgressHandler) error
	Unsubscribe() error
}

// ═══════════════════════════════════════════════════════════════════════════════
// Run Event Stream Port - durable terminal events (JetStream RUN_EVENTS)
// ═══════════════════════════════════════════════════════════════════════════════

type RunEvent struct {
	RunID         string  `json:"run_id"`
	ThoughtID     string  `json:"thought_id"`
	Status        string  `json:"status"`
	Attempt       int     `json:"attempt"`
	ErrorLayer    int     `json:"error_layer,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	FinalVideoURL string  `json:"final_video_url,omitempty"`
	TotalDuration float64 `json:"total_duration,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}

type RunEventPublisherPort interface {
	PublishRunEvent(ctx context.Context, event *RunEvent) error
}
