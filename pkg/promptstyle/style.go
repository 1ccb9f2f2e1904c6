// Package promptstyle โหลด style pack (visual, lighting, camera, negative constraints)
// ที่ต่อท้าย scene prompt ทุกตัว
package promptstyle

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style ชุด template fragments ของ scene prompt
type Style struct {
	Name     string `yaml:"name"`
	Visual   string `yaml:"visual"`
	Lighting string `yaml:"lighting"`
	Camera   string `yaml:"camera"`
	Negative string `yaml:"negative"`
}

// Default style ของ documentary
func Default() *Style {
	return &Style{
		Name:     "documentary",
		Visual:   "Cinematic documentary footage, photorealistic, natural color grade.",
		Lighting: "Soft natural light, gentle contrast.",
		Camera:   "Slow steady camera movement, shallow depth of field.",
		Negative: "No text, no captions, no logos, no watermarks, no distorted faces.",
	}
}

// Load อ่าน style จาก YAML ; path ว่างคืน Default
// field ที่ไม่ได้กำหนดในไฟล์ใช้ค่าจาก Default
func Load(path string) (*Style, error) {
	style := Default()
	if strings.TrimSpace(path) == "" {
		return style, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt style %s: %w", path, err)
	}

	var loaded Style
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("parse prompt style %s: %w", path, err)
	}

	if loaded.Name != "" {
		style.Name = loaded.Name
	}
	if loaded.Visual != "" {
		style.Visual = loaded.Visual
	}
	if loaded.Lighting != "" {
		style.Lighting = loaded.Lighting
	}
	if loaded.Camera != "" {
		style.Camera = loaded.Camera
	}
	if loaded.Negative != "" {
		style.Negative = loaded.Negative
	}
	return style, nil
}

// Fragments fragments ที่ไม่ว่าง ตามลำดับ visual, lighting, camera, negative
func (s *Style) Fragments() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, 4)
	for _, f := range []string{s.Visual, s.Lighting, s.Camera, s.Negative} {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
