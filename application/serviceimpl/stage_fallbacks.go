package serviceimpl

import (
	"strings"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
)

// ค่า default ที่ใช้เมื่อ generative call ล้มเหลวหรือ parse ไม่ได้
// blueprint ไม่มี fallback

func fallbackReason(err error, emptyReason string) string {
	if err != nil {
		return err.Error()
	}
	return emptyReason
}

func FallbackUnderstanding(thought string) *models.Understanding {
	return &models.Understanding{
		CoreTheme: "a personal reflection",
		Emotion:   "contemplative",
		Tone:      "calm",
		Keywords:  firstWords(thought, 5),
		Summary:   truncateWithEllipsis(normalizeWhitespace(thought), 200),
		Fallback:  true,
	}
}

func FallbackPerspective(thought string, u *models.Understanding) *models.Perspective {
	theme := "this moment"
	if u != nil && u.CoreTheme != "" {
		theme = u.CoreTheme
	}
	return &models.Perspective{
		Title:  "A Quiet Perspective",
		Thesis: "Every feeling carries information worth listening to.",
		Essay: "What you are feeling about " + theme + " is real and understandable. " +
			"Stepping back, it is one chapter in a longer story that is still being written. " +
			"Small, deliberate steps are often enough to change its direction.",
		KeyPoints: []string{
			"Your feelings are valid",
			"There is a wider view",
			"You can take a next step",
		},
		Fallback: true,
	}
}

func FallbackNarrationScript(u *models.Understanding, p *models.Perspective) *models.NarrationScript {
	validation := "What you are feeling makes sense. Many people have stood exactly where you are."
	if u != nil && u.Emotion != "" {
		validation = "Feeling " + u.Emotion + " makes sense. Many people have stood exactly where you are."
	}
	perspective := "Seen from a little further away, this is one moment in a much longer story."
	if p != nil && p.Thesis != "" {
		perspective = p.Thesis
	}
	return &models.NarrationScript{
		Lines: []models.NarrationLine{
			{SegmentType: models.SegmentValidation, Text: validation},
			{SegmentType: models.SegmentPerspective, Text: perspective},
			{SegmentType: models.SegmentAgency, Text: "Choose one small step you can take today. That is enough to begin."},
		},
		Fallback: true,
	}
}

func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), ".,!?;:\"'()")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
