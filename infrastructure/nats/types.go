package nats

import "fmt"

// ═══════════════════════════════════════════════════════════════════════════════
// Streams & Subjects
// ═══════════════════════════════════════════════════════════════════════════════

const (
	// RUN_EVENTS: terminal outcome ของแต่ละ attempt (runs.events.ready, runs.events.failed)
	StreamRunEvents   = "RUN_EVENTS"
	SubjectRunEvents  = "runs.events"
	ConsumerRunAlerts = "RUN_ALERTS"

	// Pub/Sub (core NATS ไม่ persist) สำหรับ live progress
	SubjectProgress = "progress.run"
)

// RunEventSubject runs.events.<status>
func RunEventSubject(status string) string {
	return fmt.Sprintf("%s.%s", SubjectRunEvents, status)
}

// ProgressSubject progress.run.<runID>
func ProgressSubject(runID string) string {
	return fmt.Sprintf("%s.%s", SubjectProgress, runID)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Messages
// ═══════════════════════════════════════════════════════════════════════════════

// ProgressUpdate ข้อมูล progress ที่ส่งผ่าน NATS
type ProgressUpdate struct {
	RunID        string  `json:"run_id"`
	Type         string  `json:"type"` // stage, scene, terminal
	Status       string  `json:"status"`
	Layer        int     `json:"layer"`
	Stage        string  `json:"stage,omitempty"`
	SceneIndex   *int    `json:"scene_index,omitempty"`
	SceneStatus  string  `json:"scene_status,omitempty"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message,omitempty"`
	Error        string  `json:"error,omitempty"`
	VideoURL     string  `json:"video_url,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

// RunEventMessage payload ใน RUN_EVENTS
type RunEventMessage struct {
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

// MsgID dedup id ของ JetStream (หนึ่ง outcome ต่อ attempt)
func (m *RunEventMessage) MsgID() string {
	return fmt.Sprintf("%s-%d-%s", m.RunID, m.Attempt, m.Status)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Status Types (health endpoint)
// ═══════════════════════════════════════════════════════════════════════════════

type JetStreamStatus struct {
	Stream   StreamInfo   `json:"stream"`
	Consumer ConsumerInfo `json:"consumer"`
}

type StreamInfo struct {
	Name     string `json:"name"`
	Messages uint64 `json:"messages"`
	Bytes    uint64 `json:"bytes"`
	FirstSeq uint64 `json:"first_seq"`
	LastSeq  uint64 `json:"last_seq"`
}

type ConsumerInfo struct {
	Name          string `json:"name"`
	NumPending    uint64 `json:"num_pending"`
	NumAckPending int    `json:"num_ack_pending"`
	Redelivered   uint64 `json:"redelivered"`
}
