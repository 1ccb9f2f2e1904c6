package ports

import "context"

// SpeechResult audio ที่ synthesize แล้ว
type SpeechResult struct {
	Audio           []byte
	ContentType     string
	DurationSeconds float64
}

// TTSPort text-to-speech สำหรับ narration
type TTSPort interface {
	Synthesize(ctx context.Context, text string) (*SpeechResult, error)
}
