package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

// apiClient HTTP client ของ /api/v1/runs
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *utils.ErrorInfo `json:"error"`
}

// APIError non-2xx จาก server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

func (c *apiClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Trigger POST /api/v1/runs
func (c *apiClient) Trigger(ctx context.Context, thoughtID uuid.UUID, regenerate bool) (*dto.TriggerRunResponse, error) {
	var out dto.TriggerRunResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/runs", dto.TriggerRunRequest{
		ThoughtID:  thoughtID,
		Regenerate: regenerate,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Status GET /api/v1/runs/:id
func (c *apiClient) Status(ctx context.Context, runID uuid.UUID) (*dto.RunStatusResponse, error) {
	var out dto.RunStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/runs/"+runID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
