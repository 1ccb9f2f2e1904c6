package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
)

// ============================================================================
// Prompt builders
// ============================================================================

func buildUnderstandingPrompt(in *ports.StageInput) string {
	return fmt.Sprintf(`You are the research lead of a short documentary team.
Read the personal thought below and describe what it is really about.

THOUGHT:
%s

Return JSON only.`, in.Thought)
}

func buildPerspectivePrompt(in *ports.StageInput) string {
	var sb strings.Builder
	sb.WriteString("You are an essayist. Offer a grounded, compassionate perspective on the thought below.\n\n")
	fmt.Fprintf(&sb, "THOUGHT:\n%s\n\n", in.Thought)
	writeUnderstanding(&sb, in.Understanding)
	sb.WriteString("Avoid clichés and advice lists. Return JSON only.")
	return sb.String()
}

func buildBlueprintPrompt(in *ports.StageInput) string {
	maxScenes := in.MaxScenes
	if maxScenes <= 0 {
		maxScenes = 8
	}

	var sb strings.Builder
	sb.WriteString("You are a documentary director planning a short film made of independent AI-generated shots.\n\n")
	fmt.Fprintf(&sb, "THOUGHT:\n%s\n\n", in.Thought)
	writeUnderstanding(&sb, in.Understanding)
	if p := in.Perspective; p != nil {
		fmt.Fprintf(&sb, "PERSPECTIVE:\nTitle: %s\nThesis: %s\n\n", p.Title, p.Thesis)
	}
	fmt.Fprintf(&sb, `Plan between 3 and %d scenes in viewing order, index starting at 0.
Each description must be a single visual shot: subject, setting, camera, light. No text on screen, no dialogue.
Return JSON only.`, maxScenes)
	return sb.String()
}

func buildNarrationPrompt(in *ports.StageInput) string {
	var sb strings.Builder
	sb.WriteString("You write voice-over for a short documentary. Write three short narration lines.\n\n")
	fmt.Fprintf(&sb, "THOUGHT:\n%s\n\n", in.Thought)
	if p := in.Perspective; p != nil {
		fmt.Fprintf(&sb, "PERSPECTIVE:\n%s\n\n", p.Thesis)
	}
	if bp := in.Blueprint; bp != nil && bp.Title != "" {
		fmt.Fprintf(&sb, "FILM TITLE: %s\n\n", bp.Title)
	}
	sb.WriteString(`Segments:
- validation: acknowledge the feeling without judging it
- perspective: offer the wider view
- agency: one small step the viewer can take
Each line at most 40 words. Return JSON only.`)
	return sb.String()
}

func writeUnderstanding(sb *strings.Builder, u *models.Understanding) {
	if u == nil {
		return
	}
	fmt.Fprintf(sb, "UNDERSTANDING:\nTheme: %s\nEmotion: %s\nTone: %s\n", u.CoreTheme, u.Emotion, u.Tone)
	if len(u.Keywords) > 0 {
		fmt.Fprintf(sb, "Keywords: %s\n", strings.Join(u.Keywords, ", "))
	}
	sb.WriteString("\n")
}

// ============================================================================
// Output validation (ไม่ผ่าน = retry)
// ============================================================================

func validateUnderstanding(v interface{}) error {
	u := v.(*models.Understanding)
	if strings.TrimSpace(u.CoreTheme) == "" {
		return errors.New("understanding: missing core_theme")
	}
	return nil
}

func validatePerspective(v interface{}) error {
	p := v.(*models.Perspective)
	if strings.TrimSpace(p.Thesis) == "" && strings.TrimSpace(p.Essay) == "" {
		return errors.New("perspective: missing thesis and essay")
	}
	return nil
}

func validateBlueprint(v interface{}) error {
	bp := v.(*models.Blueprint)
	if len(bp.UsableScenes()) == 0 {
		return errors.New("blueprint: no usable scenes")
	}
	return nil
}

func validateNarration(v interface{}) error {
	n := v.(*models.NarrationScript)
	for _, l := range n.Lines {
		if strings.TrimSpace(l.Text) != "" {
			return nil
		}
	}
	return errors.New("narration: no lines")
}
