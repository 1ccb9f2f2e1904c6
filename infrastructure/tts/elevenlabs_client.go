package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

const (
	providerName   = "elevenlabs"
	defaultTimeout = 60 * time.Second
	// ElevenLabs mp3_44100_128
	mp3BitrateBps = 128000
)

type ElevenLabsClient struct {
	apiKey     string
	baseURL    string
	voiceID    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.TTSPort = (*ElevenLabsClient)(nil)

func NewElevenLabsClient(cfg config.ElevenLabsConfig) *ElevenLabsClient {
	model := cfg.ModelID
	if model == "" {
		model = "eleven_multilingual_v2"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}

	return &ElevenLabsClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		voiceID: cfg.VoiceID,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default().With("component", "elevenlabs"),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize สร้าง narration audio (mp3)
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) (*ports.SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ports.NewPermanentError(providerName, "empty text")
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)

	jsonBody, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	charCount := len([]rune(text))
	c.logger.InfoContext(ctx, "Generating TTS audio",
		"voice_id", c.voiceID,
		"char_count", charCount,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ports.NewTransportError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, ports.NewHTTPError(providerName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ports.NewTransportError(providerName, err)
	}
	if len(audioData) == 0 {
		return nil, ports.NewPermanentError(providerName, "empty audio")
	}

	// duration โดยประมาณจากขนาดไฟล์ ffprobe จะวัดจริงตอน assemble
	duration := float64(len(audioData)*8) / mp3BitrateBps
	if duration < 1 {
		duration = 1
	}

	c.logger.InfoContext(ctx, "TTS audio generated",
		"voice_id", c.voiceID,
		"char_count", charCount,
		"audio_size", len(audioData),
		"duration_sec", duration,
	)

	return &ports.SpeechResult{
		Audio:           audioData,
		ContentType:     "audio/mpeg",
		DurationSeconds: duration,
	}, nil
}
