package models

import (
	"database/sql/driver"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Stage artifacts (เก็บเป็น jsonb บน runs)
// ═══════════════════════════════════════════════════════════════════════════════

// Understanding ผลของ layer 1: วิเคราะห์ thought
type Understanding struct {
	CoreTheme string   `json:"core_theme"`
	Emotion   string   `json:"emotion"`
	Tone      string   `json:"tone"`
	Keywords  []string `json:"keywords"`
	Summary   string   `json:"summary"`
	Fallback  bool     `json:"fallback,omitempty"`
}

func (u *Understanding) Scan(value interface{}) error { return scanJSON(value, u) }

func (u Understanding) Value() (driver.Value, error) { return valueJSON(u) }

// Perspective ผลของ layer 2: essay framing
type Perspective struct {
	Title     string   `json:"title"`
	Thesis    string   `json:"thesis"`
	Essay     string   `json:"essay"`
	KeyPoints []string `json:"key_points"`
	Fallback  bool     `json:"fallback,omitempty"`
}

func (p *Perspective) Scan(value interface{}) error { return scanJSON(value, p) }

func (p Perspective) Value() (driver.Value, error) { return valueJSON(p) }

// BlueprintScene หนึ่ง scene ใน visual blueprint
type BlueprintScene struct {
	Index           int    `json:"index"`
	Description     string `json:"description"`
	Mood            string `json:"mood,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// Blueprint ผลของ layer 3 (load-bearing: ไม่มี fallback)
type Blueprint struct {
	Title   string           `json:"title"`
	Logline string           `json:"logline"`
	Scenes  []BlueprintScene `json:"scenes"`
}

func (b *Blueprint) Scan(value interface{}) error { return scanJSON(value, b) }

func (b Blueprint) Value() (driver.Value, error) { return valueJSON(b) }

// UsableScenes คืน scenes ที่มี description จริง
func (b *Blueprint) UsableScenes() []BlueprintScene {
	if b == nil {
		return nil
	}
	out := make([]BlueprintScene, 0, len(b.Scenes))
	for _, s := range b.Scenes {
		if strings.TrimSpace(s.Description) != "" {
			out = append(out, s)
		}
	}
	return out
}

// NarrationLine ข้อความ narration ของ segment หนึ่ง
type NarrationLine struct {
	SegmentType string `json:"segment_type"`
	Text        string `json:"text"`
}

// NarrationScript ผลของ layer 4
type NarrationScript struct {
	Lines    []NarrationLine `json:"lines"`
	Fallback bool            `json:"fallback,omitempty"`
}

func (n *NarrationScript) Scan(value interface{}) error { return scanJSON(value, n) }

func (n NarrationScript) Value() (driver.Value, error) { return valueJSON(n) }

// Line คืนข้อความของ segment type ที่ระบุ
func (n *NarrationScript) Line(segmentType string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, l := range n.Lines {
		if l.SegmentType == segmentType {
			return l.Text, true
		}
	}
	return "", false
}
