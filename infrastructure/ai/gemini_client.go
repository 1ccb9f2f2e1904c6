package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

// ============================================================================
// Constants & Configuration
// ============================================================================

const (
	providerName    = "gemini"
	retryBaseDelay  = time.Second
	maxOutputTokens = 4096
)

func toPtr[T any](v T) *T {
	return &v
}

// ============================================================================
// GeminiClient
// ============================================================================

// GeminiClient stage generator ของ layer 1-4 (JSON mode + response schema)
type GeminiClient struct {
	client *genai.Client
	cfg    config.GeminiConfig
	logger *slog.Logger
}

var _ ports.StageAIPort = (*GeminiClient)(nil)

func NewGeminiClient(cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "gemini"),
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// ============================================================================
// Stages
// ============================================================================

func (c *GeminiClient) Understand(ctx context.Context, in *ports.StageInput) (*models.Understanding, error) {
	var out models.Understanding
	err := c.generateWithRetry(ctx, "understanding", understandingSchema(), buildUnderstandingPrompt(in), &out, validateUnderstanding)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GeminiClient) Perspective(ctx context.Context, in *ports.StageInput) (*models.Perspective, error) {
	var out models.Perspective
	err := c.generateWithRetry(ctx, "perspective", perspectiveSchema(), buildPerspectivePrompt(in), &out, validatePerspective)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GeminiClient) Blueprint(ctx context.Context, in *ports.StageInput) (*models.Blueprint, error) {
	var out models.Blueprint
	err := c.generateWithRetry(ctx, "blueprint", blueprintSchema(), buildBlueprintPrompt(in), &out, validateBlueprint)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GeminiClient) NarrationScript(ctx context.Context, in *ports.StageInput) (*models.NarrationScript, error) {
	var out models.NarrationScript
	err := c.generateWithRetry(ctx, "narration_script", narrationSchema(), buildNarrationPrompt(in), &out, validateNarration)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Generation with retry
// ============================================================================

// generateWithRetry retry ทั้ง transient error และ output ที่ parse/validate ไม่ผ่าน
// permanent API error (4xx) คืนทันที
func (c *GeminiClient) generateWithRetry(ctx context.Context, stage string, schema *genai.Schema, prompt string, target interface{}, validate func(interface{}) error) error {
	var lastErr error
	for i := 0; i < c.cfg.MaxRetries; i++ {
		err := c.generate(ctx, schema, prompt, target)
		if err == nil {
			err = validate(target)
		}
		if err == nil {
			return nil
		}
		lastErr = err

		var ext *ports.ExternalError
		if errors.As(err, &ext) && !ext.Transient {
			return err
		}
		if ctx.Err() != nil {
			return ports.NewTransportError(providerName, ctx.Err())
		}

		c.logger.WarnContext(ctx, "Gemini stage failed, retrying",
			"stage", stage,
			"attempt", i+1,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ports.NewTransportError(providerName, ctx.Err())
		case <-time.After(retryBaseDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", stage, c.cfg.MaxRetries, lastErr)
}

func (c *GeminiClient) generate(ctx context.Context, schema *genai.Schema, prompt string, target interface{}) error {
	model := c.client.GenerativeModel(c.cfg.Model)
	c.configureModel(model)
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(sanitizeUTF8(prompt)))
	if err != nil {
		return classifyError(err)
	}

	text, err := c.extractText(resp)
	if err != nil {
		return err
	}
	return decodeJSON(text, target)
}

// ============================================================================
// Model Configuration
// ============================================================================

func (c *GeminiClient) configureModel(model *genai.GenerativeModel) {
	model.ResponseMIMEType = "application/json"
	model.Temperature = toPtr(c.cfg.Temperature)
	model.TopP = toPtr(c.cfg.TopP)
	model.TopK = toPtr(c.cfg.TopK)
	model.MaxOutputTokens = toPtr(int32(maxOutputTokens))
}

// ============================================================================
// Response Extraction
// ============================================================================

func (c *GeminiClient) extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from gemini")
	}

	candidate := resp.Candidates[0]
	c.logger.Debug("Gemini response",
		"finish_reason", candidate.FinishReason,
		"parts_count", len(candidate.Content.Parts),
	)

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response type: %T", candidate.Content.Parts[0])
	}
	return sb.String(), nil
}

// decodeJSON ตัด markdown fence ที่ model ใส่มาบางครั้งแล้ว unmarshal
func decodeJSON(text string, target interface{}) error {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), target); err != nil {
		return fmt.Errorf("failed to parse gemini json: %w", err)
	}
	return nil
}

// sanitizeUTF8 ป้องกัน error: "proto: field contains invalid UTF-8"
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}

// classifyError map googleapi error เป็น ExternalError
func classifyError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &ports.ExternalError{Provider: providerName, Message: blocked.Error(), Err: err}
	}
	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		code := aerr.HTTPCode()
		if code <= 0 {
			code = httpCodeForGRPC(aerr.GRPCStatus().Code())
		}
		return &ports.ExternalError{
			Provider:   providerName,
			StatusCode: code,
			Transient:  ports.IsTransientStatus(code),
			Message:    aerr.Reason(),
			Err:        err,
		}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &ports.ExternalError{
			Provider:   providerName,
			StatusCode: gerr.Code,
			Transient:  ports.IsTransientStatus(gerr.Code),
			Message:    gerr.Message,
			Err:        err,
		}
	}
	if ports.IsTransient(err) {
		return ports.NewTransportError(providerName, err)
	}
	return &ports.ExternalError{Provider: providerName, Transient: true, Err: err}
}

// httpCodeForGRPC gRPC transport ไม่มี HTTP code ให้ map เอง
func httpCodeForGRPC(c codes.Code) int {
	switch c {
	case codes.ResourceExhausted:
		return 429
	case codes.Unavailable, codes.Internal, codes.Unknown, codes.DeadlineExceeded, codes.Aborted:
		return 503
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return 400
	case codes.Unauthenticated:
		return 401
	case codes.PermissionDenied:
		return 403
	case codes.NotFound:
		return 404
	default:
		return 500
	}
}
