package ports

import "context"

// ═══════════════════════════════════════════════════════════════════════════════
// Video Generation Port - External Task Client
// ═══════════════════════════════════════════════════════════════════════════════

// GenerationRequest งาน render ของหนึ่ง scene
type GenerationRequest struct {
	Prompt          string
	AspectRatio     string
	Model           string
	Audio           bool
	DurationSeconds int
}

// JobState สถานะที่ normalize แล้วของ provider job
type JobState string

const (
	JobStateRunning JobState = "running"
	JobStateDone    JobState = "done"
	JobStateFailed  JobState = "failed"
)

// JobStatus ผลของการ poll
type JobStatus struct {
	State    JobState
	VideoURL string // เมื่อ done
	Reason   string // เมื่อ failed
}

// VideoGenerationPort submit / poll งาน generate video
// Poll คืน error เฉพาะ transient (ให้ caller retry) ; permanent จะมาเป็น JobStateFailed
type VideoGenerationPort interface {
	Submit(ctx context.Context, req *GenerationRequest) (jobID string, err error)
	Poll(ctx context.Context, jobID string) (*JobStatus, error)
}
