package ai

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "plain", text: `{"core_theme":"burnout"}`, want: "burnout"},
		{name: "fenced", text: "```json\n{\"core_theme\":\"doubt\"}\n```", want: "doubt"},
		{name: "leading prose", text: "Here you go: {\"core_theme\":\"grief\"}", want: "grief"},
		{name: "garbage", text: "not json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u models.Understanding
			err := decodeJSON(tt.text, &u)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeJSON: %v", err)
			}
			if u.CoreTheme != tt.want {
				t.Errorf("CoreTheme = %q, want %q", u.CoreTheme, tt.want)
			}
		})
	}
}

func TestBuildPrompts(t *testing.T) {
	in := &ports.StageInput{
		Thought:       "Should I quit my job?",
		Understanding: &models.Understanding{CoreTheme: "career doubt", Keywords: []string{"work", "fear"}},
		Perspective:   &models.Perspective{Title: "The Long Road", Thesis: "Doubt is information."},
		Blueprint:     &models.Blueprint{Title: "Harbor"},
		MaxScenes:     5,
	}

	prompts := map[string]string{
		"understanding": buildUnderstandingPrompt(in),
		"perspective":   buildPerspectivePrompt(in),
		"blueprint":     buildBlueprintPrompt(in),
		"narration":     buildNarrationPrompt(in),
	}
	for name, p := range prompts {
		if !strings.Contains(p, in.Thought) {
			t.Errorf("%s prompt missing thought", name)
		}
	}
	if !strings.Contains(prompts["perspective"], "career doubt") {
		t.Error("perspective prompt missing understanding")
	}
	if !strings.Contains(prompts["blueprint"], "between 3 and 5 scenes") {
		t.Error("blueprint prompt ignores MaxScenes")
	}
	if !strings.Contains(prompts["narration"], "FILM TITLE: Harbor") {
		t.Error("narration prompt missing blueprint title")
	}
}

func TestValidators(t *testing.T) {
	if err := validateBlueprint(&models.Blueprint{Scenes: []models.BlueprintScene{{Description: "  "}}}); err == nil {
		t.Error("blank scenes should fail validation")
	}
	if err := validateBlueprint(&models.Blueprint{Scenes: []models.BlueprintScene{{Description: "a pier"}}}); err != nil {
		t.Errorf("validateBlueprint: %v", err)
	}
	if err := validateNarration(&models.NarrationScript{Lines: []models.NarrationLine{{SegmentType: "agency"}}}); err == nil {
		t.Error("empty narration should fail validation")
	}
	if err := validateUnderstanding(&models.Understanding{}); err == nil {
		t.Error("missing theme should fail validation")
	}
	if err := validatePerspective(&models.Perspective{Essay: "text"}); err != nil {
		t.Errorf("validatePerspective: %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: 429}, transient: true},
		{name: "server error", err: &googleapi.Error{Code: 503}, transient: true},
		{name: "bad request", err: &googleapi.Error{Code: 400}, transient: false},
		{name: "unknown", err: errors.New("stream reset"), transient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if ports.IsTransient(got) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", ports.IsTransient(got), tt.transient)
			}
		})
	}
}
