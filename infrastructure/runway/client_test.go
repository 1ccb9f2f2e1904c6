package runway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

func testConfig(url string) config.RunwayConfig {
	return config.RunwayConfig{
		APIKey:          "secret",
		BaseURL:         url,
		APIVersion:      "2024-11-06",
		Model:           "veo3.1_fast",
		AspectRatio:     "1280:720",
		DurationSeconds: 8,
		PromptLimit:     20,
	}
}

func TestSubmit(t *testing.T) {
	var got submitRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text_to_video" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		headers = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"task-1"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	id, err := c.Submit(context.Background(), &ports.GenerationRequest{
		Prompt: "a quiet harbor at dawn with fishing boats",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "task-1" {
		t.Errorf("id = %q", id)
	}
	if headers.Get("Authorization") != "Bearer secret" || headers.Get("X-Runway-Version") != "2024-11-06" {
		t.Errorf("headers = %v", headers)
	}
	if len([]rune(got.PromptText)) > 20 {
		t.Errorf("prompt not capped: %q", got.PromptText)
	}
	if got.Model != "veo3.1_fast" || got.Ratio != "1280:720" || got.Duration != 8 {
		t.Errorf("request defaults not applied: %+v", got)
	}
	if got.Audio != nil {
		t.Errorf("audio should be omitted when disabled")
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{name: "bad request", status: 400, body: `{"error":"prompt too long"}`, transient: false},
		{name: "rate limited", status: 429, body: `{"error":"slow down"}`, transient: true},
		{name: "server error", status: 500, body: ``, transient: true},
		{name: "missing id", status: 200, body: `{}`, transient: false},
		{name: "malformed", status: 200, body: `not-json`, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(testConfig(srv.URL)).Submit(context.Background(), &ports.GenerationRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if ports.IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v (%v)", ports.IsTransient(err), tt.transient, err)
			}
		})
	}
}

func TestSubmit_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(testConfig(url)).Submit(context.Background(), &ports.GenerationRequest{Prompt: "x"})
	if err == nil || !ports.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestPoll_States(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		state  ports.JobState
		url    string
		reason string
	}{
		{name: "pending", body: `{"status":"PENDING"}`, state: ports.JobStateRunning},
		{name: "throttled", body: `{"status":"THROTTLED"}`, state: ports.JobStateRunning},
		{name: "running", body: `{"status":"RUNNING"}`, state: ports.JobStateRunning},
		{name: "succeeded", body: `{"status":"SUCCEEDED","output":["https://cdn.runway.test/v.mp4"]}`, state: ports.JobStateDone, url: "https://cdn.runway.test/v.mp4"},
		{name: "succeeded without output", body: `{"status":"SUCCEEDED","output":[]}`, state: ports.JobStateFailed, reason: "task succeeded without output"},
		{name: "failed", body: `{"status":"FAILED","failure":"content moderation","failureCode":"SAFETY"}`, state: ports.JobStateFailed, reason: "SAFETY: content moderation"},
		{name: "cancelled", body: `{"status":"CANCELLED"}`, state: ports.JobStateFailed, reason: "cancelled"},
		{name: "malformed", body: `<html>`, state: ports.JobStateFailed, reason: "malformed task response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			st, err := NewClient(testConfig(srv.URL)).Poll(context.Background(), "task-1")
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if st.State != tt.state || st.VideoURL != tt.url {
				t.Errorf("status = %+v", st)
			}
			if tt.reason != "" && st.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", st.Reason, tt.reason)
			}
		})
	}
}

func TestPoll_FallsBackToSecondPath(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if strings.HasPrefix(r.URL.Path, "/v1/tasks/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"SUCCEEDED","output":["https://cdn.runway.test/b.mp4"]}`))
	}))
	defer srv.Close()

	st, err := NewClient(testConfig(srv.URL)).Poll(context.Background(), "task-9")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.State != ports.JobStateDone || st.VideoURL != "https://cdn.runway.test/b.mp4" {
		t.Errorf("status = %+v", st)
	}
	want := []string{"/v1/tasks/task-9", "/v1/text_to_video/task-9"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestPoll_AllPathsRejected(t *testing.T) {
	tests := []struct {
		name      string
		statuses  map[string]int
		wantErr   bool
		transient bool
	}{
		{
			name:     "all 404 is failed",
			statuses: map[string]int{"/v1/tasks/": 404, "/v1/text_to_video/": 404},
		},
		{
			name:     "401 and 404 is failed",
			statuses: map[string]int{"/v1/tasks/": 401, "/v1/text_to_video/": 404},
		},
		{
			name:      "any 5xx is retryable",
			statuses:  map[string]int{"/v1/tasks/": 404, "/v1/text_to_video/": 503},
			wantErr:   true,
			transient: true,
		},
		{
			name:      "429 is retryable",
			statuses:  map[string]int{"/v1/tasks/": 429, "/v1/text_to_video/": 404},
			wantErr:   true,
			transient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for prefix, code := range tt.statuses {
					if strings.HasPrefix(r.URL.Path, prefix) {
						w.WriteHeader(code)
						return
					}
				}
				t.Errorf("unexpected path %s", r.URL.Path)
			}))
			defer srv.Close()

			st, err := NewClient(testConfig(srv.URL)).Poll(context.Background(), "task-1")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", st)
				}
				if ports.IsTransient(err) != tt.transient {
					t.Errorf("IsTransient = %v", ports.IsTransient(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if st.State != ports.JobStateFailed {
				t.Errorf("state = %s, want failed", st.State)
			}
			if !strings.HasPrefix(st.Reason, "task lookup failed on all paths") {
				t.Errorf("reason = %q", st.Reason)
			}
		})
	}
}

func TestCapPrompt(t *testing.T) {
	if got := capPrompt("ท่าเรือยามเช้า", 5); got != "ท่าเร" {
		t.Errorf("capPrompt = %q", got)
	}
	if got := capPrompt("short", 0); got != "short" {
		t.Errorf("capPrompt with no limit = %q", got)
	}
}
