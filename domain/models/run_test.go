package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLayerForStatus_IsTotal(t *testing.T) {
	cases := []struct {
		status RunStatus
		want   Layer
	}{
		{RunStatusPending, LayerNone},
		{RunStatusUnderstanding, LayerUnderstanding},
		{RunStatusBlueprint, LayerBlueprint},
		{RunStatusGenerating, LayerGeneration},
		{RunStatusAssembling, LayerAssembly},
		{RunStatusReady, LayerAssembly},
		{RunStatusFailed, LayerNone},
		{RunStatus("bogus"), LayerNone},
	}

	for _, tc := range cases {
		if got := LayerForStatus(tc.status); got != tc.want {
			t.Fatalf("LayerForStatus(%q) = %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestStatusForLayer_RoundTripsThroughLayerForStatus(t *testing.T) {
	for _, l := range AllLayers {
		status := StatusForLayer(l)
		if status.IsTerminal() || status == RunStatusPending {
			t.Fatalf("layer %d mapped to non-active status %q", l, status)
		}
		if back := LayerForStatus(status); back > l {
			t.Fatalf("layer %d -> %q -> %d goes forward", l, status, back)
		}
	}

	if got := StatusForLayer(LayerNarrationAudio); got != RunStatusBlueprint {
		t.Fatalf("narration audio should run under blueprint status, got %q", got)
	}
}

func TestResumeLayer(t *testing.T) {
	ready := &Scene{Status: SceneStatusReady, RunwayVideoURL: "https://cdn/0.mp4"}
	readyNoURL := &Scene{Status: SceneStatusReady}
	failed := &Scene{Status: SceneStatusFailed}
	inFlight := &Scene{Status: SceneStatusProcessing, ExternalJobID: "job-1"}
	processingNoJob := &Scene{Status: SceneStatusProcessing}
	bp := &Blueprint{Title: "t"}

	cases := []struct {
		name      string
		status    RunStatus
		blueprint *Blueprint
		scenes    []*Scene
		want      Layer
	}{
		{"fresh", RunStatusPending, nil, nil, LayerUnderstanding},
		{"failed with ready scene", RunStatusFailed, nil, []*Scene{failed, ready}, LayerGeneration},
		{"interrupted mid generation", RunStatusGenerating, nil, []*Scene{ready}, LayerGeneration},
		{"ready without url is not reusable", RunStatusFailed, nil, []*Scene{readyNoURL, failed}, LayerUnderstanding},
		{"ready run starts over", RunStatusReady, nil, []*Scene{ready}, LayerUnderstanding},
		{"in-flight scenes only are re-polled", RunStatusGenerating, bp, []*Scene{inFlight, inFlight}, LayerGeneration},
		{"in-flight without blueprint starts over", RunStatusGenerating, nil, []*Scene{inFlight}, LayerUnderstanding},
		{"processing without job id is not in flight", RunStatusGenerating, bp, []*Scene{processingNoJob}, LayerUnderstanding},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			run := &Run{Status: tc.status, Blueprint: tc.blueprint}
			if got := run.ResumeLayer(tc.scenes); got != tc.want {
				t.Fatalf("ResumeLayer = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHasLiveLease(t *testing.T) {
	now := time.Now()
	token := uuid.New()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	if (&Run{}).HasLiveLease(now) {
		t.Fatalf("run without token should not hold a lease")
	}
	if !(&Run{LeaseToken: &token, LeaseExpiresAt: &future}).HasLiveLease(now) {
		t.Fatalf("unexpired lease should be live")
	}
	if (&Run{LeaseToken: &token, LeaseExpiresAt: &past}).HasLiveLease(now) {
		t.Fatalf("expired lease should not be live")
	}
}

func TestBlueprintScan_AcceptsStringAndBytes(t *testing.T) {
	raw, _ := json.Marshal(Blueprint{Title: "t", Scenes: []BlueprintScene{{Index: 0, Description: "a"}}})

	var fromBytes Blueprint
	if err := fromBytes.Scan(raw); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	var fromString Blueprint
	if err := fromString.Scan(string(raw)); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if fromBytes.Title != "t" || len(fromString.Scenes) != 1 {
		t.Fatalf("unexpected scan result: %+v %+v", fromBytes, fromString)
	}
}

func TestUsableScenes_DropsBlankDescriptions(t *testing.T) {
	bp := &Blueprint{Scenes: []BlueprintScene{
		{Index: 0, Description: "sunrise"},
		{Index: 1, Description: "   "},
		{Index: 2, Description: "city"},
	}}
	if got := len(bp.UsableScenes()); got != 2 {
		t.Fatalf("usable scenes = %d, want 2", got)
	}
	var nilBP *Blueprint
	if nilBP.UsableScenes() != nil {
		t.Fatalf("nil blueprint should have no scenes")
	}
}
