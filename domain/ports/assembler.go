package ports

import (
	"context"
	"errors"
)

// ErrNoClips ไม่มี scene ที่ ready ให้ assemble
var ErrNoClips = errors.New("no clips to assemble")

// Clip หนึ่ง scene ที่ ready (เรียงตาม Index ก่อนส่งเข้า assembler)
type Clip struct {
	Index int
	URL   string
}

// NarrationClip audio ของหนึ่ง segment
type NarrationClip struct {
	SegmentType string
	URL         string
}

type AssembleInput struct {
	RunID     string
	OutputKey string // storage prefix เช่น runs/<id>/<slug>
	Clips     []Clip
	Narration []NarrationClip
}

type AssembleResult struct {
	VideoURL        string
	ThumbnailURL    string
	DurationSeconds float64
}

// AssemblerPort concat + mux + thumbnail
type AssemblerPort interface {
	Assemble(ctx context.Context, in *AssembleInput) (*AssembleResult, error)
}
