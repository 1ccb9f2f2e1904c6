package dto

import (
	"testing"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

func TestRunToStatusResponse_FailedRunExposesErrorLayer(t *testing.T) {
	layer := models.LayerAssembly
	run := &models.Run{
		ID:            uuid.New(),
		Status:        models.RunStatusFailed,
		CurrentLayer:  models.LayerAssembly,
		ErrorLayer:    &layer,
		ErrorMessage:  "ffmpeg exited 1",
		FinalVideoURL: "stale",
	}
	scenes := []*models.Scene{
		{SceneIndex: 0, Status: models.SceneStatusReady, RunwayVideoURL: "https://cdn/0.mp4"},
		{SceneIndex: 1, Status: models.SceneStatusReady, RunwayVideoURL: "https://cdn/1.mp4"},
	}

	resp := RunToStatusResponse(run, scenes, nil)

	if resp.CurrentLayer != int(models.LayerAssembly) {
		t.Errorf("CurrentLayer = %d, want last reached layer 7", resp.CurrentLayer)
	}
	if resp.Progress != 85.7 {
		t.Errorf("Progress = %v, want 85.7 (progress before layer 7)", resp.Progress)
	}
	if resp.ErrorLayer == nil || *resp.ErrorLayer != 7 {
		t.Fatalf("ErrorLayer = %v, want 7", resp.ErrorLayer)
	}
	if resp.FinalVideoURL != "" {
		t.Errorf("failed run should not expose FinalVideoURL, got %q", resp.FinalVideoURL)
	}
	for _, s := range resp.Scenes {
		if s.Status != "ready" || s.VideoURL == "" {
			t.Errorf("scene %d = %+v, want ready with url", s.Index, s)
		}
	}
}

func TestRunToStatusResponse_HidesURLsOfUnreadyItems(t *testing.T) {
	run := &models.Run{ID: uuid.New(), Status: models.RunStatusGenerating, CurrentLayer: models.LayerGeneration}
	scenes := []*models.Scene{
		{SceneIndex: 0, Status: models.SceneStatusReady, RunwayVideoURL: "https://cdn/0.mp4"},
		{SceneIndex: 1, Status: models.SceneStatusProcessing, RunwayVideoURL: "partial"},
	}
	segments := []*models.NarrationSegment{
		{SegmentType: "opening", Status: models.SegmentStatusReady, AudioURL: "https://cdn/opening.mp3"},
		{SegmentType: "closing", Status: models.SegmentStatusProcessing, AudioURL: "partial"},
	}

	resp := RunToStatusResponse(run, scenes, segments)

	if resp.ErrorLayer != nil || resp.ErrorMessage != "" {
		t.Errorf("non-failed run exposes error fields: %+v", resp)
	}
	if resp.Scenes[1].VideoURL != "" {
		t.Errorf("processing scene exposes url %q", resp.Scenes[1].VideoURL)
	}
	if resp.Narration["closing"].AudioURL != "" {
		t.Errorf("processing segment exposes url %q", resp.Narration["closing"].AudioURL)
	}
	if resp.Narration["opening"].AudioURL == "" {
		t.Error("ready segment should expose audio url")
	}
	if resp.Progress <= 71.4 || resp.Progress >= 85.8 {
		t.Errorf("Progress = %v, want between layer 6 start and end", resp.Progress)
	}
}

func TestRunToSummaryResponse_ReportedLayer(t *testing.T) {
	layer := models.LayerBlueprint
	cases := []struct {
		name string
		run  *models.Run
		want int
	}{
		{"in progress derives from status", &models.Run{Status: models.RunStatusGenerating, CurrentLayer: models.LayerBlueprint}, int(models.LayerGeneration)},
		{"failed keeps current layer", &models.Run{Status: models.RunStatusFailed, CurrentLayer: models.LayerNarrationScript}, int(models.LayerNarrationScript)},
		{"failed falls back to error layer", &models.Run{Status: models.RunStatusFailed, ErrorLayer: &layer}, int(models.LayerBlueprint)},
		{"failed with nothing recorded", &models.Run{Status: models.RunStatusFailed}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RunToSummaryResponse(tc.run).CurrentLayer; got != tc.want {
				t.Errorf("CurrentLayer = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		name   string
		status models.RunStatus
		layer  models.Layer
		ready  int
		total  int
		want   float64
	}{
		{"ready", models.RunStatusReady, models.LayerAssembly, 0, 0, 100},
		{"pending", models.RunStatusPending, models.LayerNone, 0, 0, 0},
		{"failed keeps last layer", models.RunStatusFailed, models.LayerGeneration, 3, 4, 71.4},
		{"failed before any layer", models.RunStatusFailed, models.LayerNone, 0, 0, 0},
		{"understanding", models.RunStatusUnderstanding, models.LayerUnderstanding, 0, 0, 0},
		{"generation half", models.RunStatusGenerating, models.LayerGeneration, 2, 4, 78.5},
		{"invalid layer falls back to status", models.RunStatusAssembling, models.LayerNone, 0, 0, 85.7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ProgressPercent(tc.status, tc.layer, tc.ready, tc.total); got != tc.want {
				t.Errorf("ProgressPercent() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPipelineStepToResponse_NilPayload(t *testing.T) {
	resp := PipelineStepToResponse(&models.PipelineStep{Layer: models.LayerBlueprint, Step: "blueprint"})
	if resp.Payload == nil {
		t.Fatal("Payload should be an empty map, not nil")
	}
	if resp.Layer != 3 {
		t.Errorf("Layer = %d, want 3", resp.Layer)
	}
}

func TestPageRequestResolve(t *testing.T) {
	tests := []struct {
		name                     string
		req                      PageRequest
		wantPage, wantLimit, off int
	}{
		{"defaults", PageRequest{}, 1, 20, 0},
		{"third page", PageRequest{Page: 3, Limit: 10}, 3, 10, 20},
		{"limit only", PageRequest{Limit: 5}, 1, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, offset := tt.req.Resolve(20)
			if page != tt.wantPage || limit != tt.wantLimit || offset != tt.off {
				t.Errorf("Resolve() = (%d, %d, %d), want (%d, %d, %d)", page, limit, offset, tt.wantPage, tt.wantLimit, tt.off)
			}
		})
	}
}
