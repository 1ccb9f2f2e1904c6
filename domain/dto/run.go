package dto

import (
	"time"

	"github.com/google/uuid"
)

type TriggerRunRequest struct {
	ThoughtID  uuid.UUID `json:"thoughtId" validate:"required"`
	Regenerate bool      `json:"regenerate"`
}

// TriggerRunResponse ตอบกลับทันที pipeline ทำงานต่อใน background
type TriggerRunResponse struct {
	RunID        uuid.UUID `json:"runId"`
	Status       string    `json:"status"`
	CurrentLayer int       `json:"currentLayer"`
	Started      bool      `json:"started"`
	StartLayer   int       `json:"startLayer,omitempty"`
	Attempt      int       `json:"attempt"`
}

type SceneStatusResponse struct {
	Index    int    `json:"index"`
	Status   string `json:"status"`
	VideoURL string `json:"videoUrl,omitempty"`
}

type NarrationStatusResponse struct {
	Status   string `json:"status"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// RunStatusResponse shape ของ status poll (field names เป็น contract ห้ามเปลี่ยน)
type RunStatusResponse struct {
	ID            uuid.UUID                          `json:"id"`
	ThoughtID     uuid.UUID                          `json:"thoughtId"`
	Status        string                             `json:"status"`
	CurrentLayer  int                                `json:"currentLayer"`
	Progress      float64                            `json:"progress"`
	Attempt       int                                `json:"attempt"`
	ErrorMessage  string                             `json:"errorMessage,omitempty"`
	ErrorLayer    *int                               `json:"errorLayer,omitempty"`
	FinalVideoURL string                             `json:"finalVideoUrl,omitempty"`
	ThumbnailURL  string                             `json:"thumbnailUrl,omitempty"`
	TotalDuration float64                            `json:"totalDuration,omitempty"`
	Scenes        []SceneStatusResponse              `json:"scenes"`
	Narration     map[string]NarrationStatusResponse `json:"narration"`
	UpdatedAt     time.Time                          `json:"updatedAt"`
}

type RunSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	ThoughtID     uuid.UUID `json:"thoughtId"`
	Status        string    `json:"status"`
	CurrentLayer  int       `json:"currentLayer"`
	Attempt       int       `json:"attempt"`
	FinalVideoURL string    `json:"finalVideoUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type RunFilterRequest struct {
	PageRequest
	Status string `query:"status" validate:"omitempty,oneof=pending understanding blueprint generating assembling ready failed"`
}

type PipelineStepResponse struct {
	Layer      int                    `json:"layer"`
	Step       string                 `json:"step"`
	Attempt    int                    `json:"attempt"`
	DurationMs int64                  `json:"durationMs"`
	Payload    map[string]interface{} `json:"payload"`
	CreatedAt  time.Time              `json:"createdAt"`
}

type RunHistoryResponse struct {
	Run   *RunStatusResponse     `json:"run"`
	Steps []PipelineStepResponse `json:"steps"`
}
