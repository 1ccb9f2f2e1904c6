package serviceimpl

import (
	"strings"
	"unicode/utf8"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/promptstyle"
)

const promptEllipsis = "..."

// ScenePromptComposer สร้าง generation prompt ของ scene
// description (ตัดเหลือ keep ตัวอักษร + ellipsis) ตามด้วย style fragments
// ผลลัพธ์ไม่เกิน limit ตัวอักษรเสมอ
type ScenePromptComposer struct {
	limit     int
	keep      int
	fragments []string
}

func NewScenePromptComposer(limit, keep int, style *promptstyle.Style) *ScenePromptComposer {
	if limit <= 0 {
		limit = 1000
	}
	if keep <= 0 || keep > limit {
		keep = limit * 3 / 5
	}
	if style == nil {
		style = promptstyle.Default()
	}
	return &ScenePromptComposer{limit: limit, keep: keep, fragments: style.Fragments()}
}

func (c *ScenePromptComposer) Limit() int {
	return c.limit
}

// Compose รวม description กับ mood และ template fragments
func (c *ScenePromptComposer) Compose(description, mood string) string {
	desc := normalizeWhitespace(description)

	parts := make([]string, 0, len(c.fragments)+1)
	if m := normalizeWhitespace(mood); m != "" {
		parts = append(parts, "Mood: "+m+".")
	}
	parts = append(parts, c.fragments...)
	suffix := strings.Join(parts, " ")

	keep := c.keep
	if suffix != "" {
		// เผื่อช่องว่าง 1 ตัวและ ellipsis
		room := c.limit - utf8.RuneCountInString(suffix) - 1 - len(promptEllipsis)
		if room < keep {
			keep = room
		}
	}
	if keep < 0 {
		keep = 0
	}

	desc = truncateWithEllipsis(desc, keep)

	var prompt string
	switch {
	case desc == "":
		prompt = suffix
	case suffix == "":
		prompt = desc
	default:
		prompt = desc + " " + suffix
	}
	return truncateRunes(prompt, c.limit)
}

// truncateWithEllipsis เก็บ n ตัวอักษรแรกแล้วต่อ ellipsis ถ้ายาวเกิน
func truncateWithEllipsis(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 0 {
		return ""
	}
	return strings.TrimRight(truncateRunes(s, n), " ") + promptEllipsis
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
