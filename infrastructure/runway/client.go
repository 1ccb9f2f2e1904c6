package runway

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
	providerName   = "runway"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1024
)

// lookupPaths provider เปิด task เดียวกันไว้หลาย path ลองตามลำดับ
var lookupPaths = []string{
	"/v1/tasks/%s",
	"/v1/text_to_video/%s",
}

// Client External Task Client ของ Runway (submit / poll)
type Client struct {
	cfg        config.RunwayConfig
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.VideoGenerationPort = (*Client)(nil)

func NewClient(cfg config.RunwayConfig) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default().With("component", "runway"),
	}
}

type submitRequest struct {
	PromptText string `json:"promptText"`
	Ratio      string `json:"ratio"`
	Model      string `json:"model"`
	Duration   int    `json:"duration,omitempty"`
	Audio      *bool  `json:"audio,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type taskResponse struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Output  []string `json:"output"`
	Failure string   `json:"failure"`
	Code    string   `json:"failureCode"`
}

// ═══════════════════════════════════════════════════════════════════════════════
// Submit
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Client) Submit(ctx context.Context, req *ports.GenerationRequest) (string, error) {
	body := submitRequest{
		PromptText: capPrompt(req.Prompt, c.cfg.PromptLimit),
		Ratio:      firstNonEmpty(req.AspectRatio, c.cfg.AspectRatio),
		Model:      firstNonEmpty(req.Model, c.cfg.Model),
		Duration:   req.DurationSeconds,
	}
	if body.Duration == 0 {
		body.Duration = c.cfg.DurationSeconds
	}
	if req.Audio || c.cfg.Audio {
		audio := true
		body.Audio = &audio
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/text_to_video", data)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httpError(resp)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ports.NewPermanentError(providerName, "malformed submit response: "+err.Error())
	}
	if out.ID == "" {
		return "", ports.NewPermanentError(providerName, "submit response without task id")
	}

	c.logger.InfoContext(ctx, "Runway task submitted",
		"task_id", out.ID,
		"model", body.Model,
		"prompt_chars", len([]rune(body.PromptText)),
	)
	return out.ID, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Poll
// ═══════════════════════════════════════════════════════════════════════════════

// Poll ลองทุก lookup path จนกว่าจะได้ 2xx
// ไม่มี path ไหนตอบ 2xx: ถ้ามี transient (network, 429, 5xx) คืน error ให้ retry ไม่งั้นถือว่า failed
func (c *Client) Poll(ctx context.Context, jobID string) (*ports.JobStatus, error) {
	var (
		transientErr error
		lastFailure  string
	)

	for _, pattern := range lookupPaths {
		url := c.baseURL + fmt.Sprintf(pattern, jobID)

		resp, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			transientErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			status, err := decodeTask(resp.Body)
			resp.Body.Close()
			return status, err
		}

		herr := httpError(resp)
		resp.Body.Close()
		if herr.Transient {
			transientErr = herr
		} else {
			lastFailure = herr.Error()
		}
		c.logger.DebugContext(ctx, "Runway lookup path rejected", "task_id", jobID, "url", url, "status", herr.StatusCode)
	}

	if transientErr != nil {
		return nil, transientErr
	}
	return &ports.JobStatus{
		State:  ports.JobStateFailed,
		Reason: "task lookup failed on all paths: " + lastFailure,
	}, nil
}

func decodeTask(body io.Reader) (*ports.JobStatus, error) {
	var task taskResponse
	if err := json.NewDecoder(body).Decode(&task); err != nil {
		return &ports.JobStatus{State: ports.JobStateFailed, Reason: "malformed task response"}, nil
	}

	switch strings.ToUpper(task.Status) {
	case "PENDING", "THROTTLED", "RUNNING":
		return &ports.JobStatus{State: ports.JobStateRunning}, nil
	case "SUCCEEDED":
		if len(task.Output) == 0 || task.Output[0] == "" {
			return &ports.JobStatus{State: ports.JobStateFailed, Reason: "task succeeded without output"}, nil
		}
		return &ports.JobStatus{State: ports.JobStateDone, VideoURL: task.Output[0]}, nil
	case "FAILED", "CANCELLED":
		reason := task.Failure
		if task.Code != "" {
			reason = strings.TrimSpace(task.Code + ": " + reason)
		}
		if reason == "" {
			reason = strings.ToLower(task.Status)
		}
		return &ports.JobStatus{State: ports.JobStateFailed, Reason: reason}, nil
	default:
		return &ports.JobStatus{State: ports.JobStateFailed, Reason: fmt.Sprintf("unknown task status %q", task.Status)}, nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// HTTP helpers
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Runway-Version", c.cfg.APIVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ports.NewTransportError(providerName, err)
	}
	return resp, nil
}

func httpError(resp *http.Response) *ports.ExternalError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return ports.NewHTTPError(providerName, resp.StatusCode, msg)
}

// capPrompt ตัดตาม rune เผื่อ caller ส่งเกิน limit มา
func capPrompt(prompt string, limit int) string {
	if limit <= 0 {
		return prompt
	}
	r := []rune(prompt)
	if len(r) <= limit {
		return prompt
	}
	return strings.TrimSpace(string(r[:limit]))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
