package promptstyle

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	style, err := Load("")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if style.Name != "documentary" {
		t.Fatalf("expected default style, got %q", style.Name)
	}
	if len(style.Fragments()) != 4 {
		t.Fatalf("expected 4 default fragments, got %d", len(style.Fragments()))
	}
}

func TestLoad_OverridesOnlyProvidedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	content := "name: noir\nlighting: \"Hard shadows, low key.\"\nnegative: \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write style: %v", err)
	}

	style, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if style.Name != "noir" || style.Lighting != "Hard shadows, low key." {
		t.Fatalf("overrides not applied: %+v", style)
	}
	if style.Negative != Default().Negative {
		t.Fatalf("empty negative should keep default, got %q", style.Negative)
	}
}

func TestLoad_RejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("name: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
