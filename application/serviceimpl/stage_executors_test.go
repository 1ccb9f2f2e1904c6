package serviceimpl

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

func TestNormalizeBlueprint(t *testing.T) {
	bp := &models.Blueprint{
		Title: "  Harbor  ",
		Scenes: []models.BlueprintScene{
			{Index: 4, Description: "last   shot"},
			{Index: 1, Description: "  "},
			{Index: 2, Description: "middle"},
			{Index: 0, Description: "first"},
		},
	}

	got, err := NormalizeBlueprint(bp, 0)
	if err != nil {
		t.Fatalf("NormalizeBlueprint: %v", err)
	}
	want := []string{"first", "middle", "last shot"}
	if len(got.Scenes) != len(want) {
		t.Fatalf("scenes = %+v", got.Scenes)
	}
	for i, sc := range got.Scenes {
		if sc.Index != i || sc.Description != want[i] {
			t.Errorf("scene %d = %+v", i, sc)
		}
	}
	if got.Title != "Harbor" {
		t.Errorf("title = %q", got.Title)
	}
	if bp.Scenes[0].Index != 4 {
		t.Error("input blueprint mutated")
	}
}

func TestNormalizeBlueprint_CapsSceneCount(t *testing.T) {
	bp := &models.Blueprint{}
	for i := 0; i < 12; i++ {
		bp.Scenes = append(bp.Scenes, models.BlueprintScene{Index: i, Description: "shot"})
	}
	got, err := NormalizeBlueprint(bp, 8)
	if err != nil || len(got.Scenes) != 8 {
		t.Fatalf("scenes = %d err = %v", len(got.Scenes), err)
	}
}

func TestNormalizeBlueprint_Unusable(t *testing.T) {
	for _, bp := range []*models.Blueprint{
		nil,
		{},
		{Scenes: []models.BlueprintScene{{Index: 0, Description: " "}}},
	} {
		if _, err := NormalizeBlueprint(bp, 8); !errors.Is(err, ErrNoBlueprint) {
			t.Errorf("NormalizeBlueprint(%+v) err = %v", bp, err)
		}
	}
}

func TestReadyClips_SkipsFailedAndSortsByIndex(t *testing.T) {
	scenes := []*models.Scene{
		{ID: uuid.New(), SceneIndex: 3, Status: models.SceneStatusReady, RunwayVideoURL: "d"},
		{ID: uuid.New(), SceneIndex: 0, Status: models.SceneStatusReady, RunwayVideoURL: "a"},
		{ID: uuid.New(), SceneIndex: 1, Status: models.SceneStatusFailed},
		{ID: uuid.New(), SceneIndex: 2, Status: models.SceneStatusReady, RunwayVideoURL: ""},
	}
	clips := readyClips(scenes)
	if len(clips) != 2 || clips[0].URL != "a" || clips[1].URL != "d" {
		t.Errorf("clips = %+v", clips)
	}
}

func TestReadyNarration_SegmentOrder(t *testing.T) {
	segs := []*models.NarrationSegment{
		{SegmentType: models.SegmentAgency, Status: models.SegmentStatusReady, AudioURL: "c"},
		{SegmentType: models.SegmentValidation, Status: models.SegmentStatusReady, AudioURL: "a"},
		{SegmentType: models.SegmentPerspective, Status: models.SegmentStatusFailed},
	}
	got := readyNarration(segs)
	if len(got) != 2 || got[0].URL != "a" || got[1].URL != "c" {
		t.Errorf("narration = %+v", got)
	}
}

func TestFallbacks(t *testing.T) {
	thought := "Should I quit my job, and move to the coast?"

	u := FallbackUnderstanding(thought)
	if !u.Fallback || u.CoreTheme == "" {
		t.Fatalf("understanding = %+v", u)
	}
	if strings.Join(u.Keywords, ",") != "should,i,quit,my,job" {
		t.Errorf("keywords = %v", u.Keywords)
	}

	p := FallbackPerspective(thought, u)
	if !p.Fallback || !strings.Contains(p.Essay, u.CoreTheme) || len(p.KeyPoints) == 0 {
		t.Errorf("perspective = %+v", p)
	}

	script := FallbackNarrationScript(u, p)
	for _, segmentType := range models.SegmentTypes {
		if text, ok := script.Line(segmentType); !ok || text == "" {
			t.Errorf("missing %s line", segmentType)
		}
	}
	if text, _ := script.Line(models.SegmentPerspective); text != p.Thesis {
		t.Errorf("perspective line = %q", text)
	}

	if s := FallbackNarrationScript(nil, nil); len(s.Lines) != 3 {
		t.Errorf("nil inputs produced %d lines", len(s.Lines))
	}
}
