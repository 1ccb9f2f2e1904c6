package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

type fakeFetcher struct {
	status *dto.RunStatusResponse
	err    error
}

func (f *fakeFetcher) Status(ctx context.Context, runID uuid.UUID) (*dto.RunStatusResponse, error) {
	return f.status, f.err
}

func TestAPIClientStatus(t *testing.T) {
	runID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/runs/"+runID.String() {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":           runID,
				"status":       "generating",
				"currentLayer": 6,
				"progress":     80.5,
				"scenes":       []map[string]interface{}{{"index": 0, "status": "ready"}},
			},
		})
	}))
	defer srv.Close()

	status, err := newAPIClient(srv.URL+"/", "").Status(context.Background(), runID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Status != "generating" || status.CurrentLayer != 6 || len(status.Scenes) != 1 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestAPIClientTriggerSendsToken(t *testing.T) {
	thoughtID := uuid.New()
	runID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req dto.TriggerRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.ThoughtID != thoughtID || !req.Regenerate {
			t.Errorf("unexpected request %+v", req)
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"runId": runID, "status": "pending", "started": true, "startLayer": 1},
		})
	}))
	defer srv.Close()

	resp, err := newAPIClient(srv.URL, "secret").Trigger(context.Background(), thoughtID, true)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if resp.RunID != runID || !resp.Started || resp.StartLayer != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAPIClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]interface{}{"code": "NOT_FOUND", "message": "Run not found"},
		})
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL, "").Status(context.Background(), uuid.New())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestWatchModelStopsOnTerminalStatus(t *testing.T) {
	m := newWatchModel(uuid.New(), &fakeFetcher{}, time.Second)

	next, cmd := m.Update(statusMsg{status: &dto.RunStatusResponse{Status: "generating", CurrentLayer: 6}})
	m = next.(watchModel)
	if m.done || cmd == nil {
		t.Fatalf("non-terminal status should keep polling")
	}

	layer := 7
	next, _ = m.Update(statusMsg{status: &dto.RunStatusResponse{
		Status:       "failed",
		CurrentLayer: 7,
		ErrorLayer:   &layer,
		ErrorMessage: "ffmpeg exited 1",
	}})
	m = next.(watchModel)
	if !m.done {
		t.Fatal("failed status should finish the watch")
	}
	view := m.View()
	if !strings.Contains(view, "failed at layer 7") || !strings.Contains(view, "ffmpeg exited 1") {
		t.Errorf("view missing failure details:\n%s", view)
	}
}

func TestWatchModelGivesUpAfterRepeatedErrors(t *testing.T) {
	m := newWatchModel(uuid.New(), &fakeFetcher{}, time.Second)
	for i := 0; i < maxFetchErrors-1; i++ {
		next, _ := m.Update(fetchErrMsg{err: errors.New("connection refused")})
		m = next.(watchModel)
		if m.done {
			t.Fatalf("gave up after %d errors", i+1)
		}
	}

	next, _ := m.Update(statusMsg{status: &dto.RunStatusResponse{Status: "blueprint"}})
	m = next.(watchModel)
	if m.errCount != 0 {
		t.Errorf("errCount = %d after success, want 0", m.errCount)
	}

	for i := 0; i < maxFetchErrors; i++ {
		next, _ := m.Update(fetchErrMsg{err: errors.New("timeout")})
		m = next.(watchModel)
	}
	if !m.done {
		t.Error("expected watch to stop after consecutive errors")
	}
}

func TestWatchPlainReturnsOnReady(t *testing.T) {
	var out bytes.Buffer
	f := &fakeFetcher{status: &dto.RunStatusResponse{Status: "ready", FinalVideoURL: "http://x/final.mp4"}}
	if err := watchPlain(&out, f, uuid.New(), time.Millisecond); err != nil {
		t.Fatalf("watchPlain() error = %v", err)
	}
	if !strings.Contains(out.String(), "http://x/final.mp4") {
		t.Errorf("output missing final url:\n%s", out.String())
	}

	f.status = &dto.RunStatusResponse{Status: "failed", ErrorMessage: "boom"}
	if err := watchPlain(&out, f, uuid.New(), time.Millisecond); err == nil {
		t.Fatal("expected error for failed run")
	}
}

func plainOutput(t *testing.T) {
	t.Helper()
	orig := outputIsTTY
	outputIsTTY = func() bool { return false }
	t.Cleanup(func() { outputIsTTY = orig })
}

func readyStatusHandler(t *testing.T, runID uuid.UUID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":            runID,
				"status":        "ready",
				"currentLayer":  7,
				"progress":      100,
				"finalVideoUrl": "http://cdn.test/final.mp4",
			},
		})
	}
}

func TestRootCommand_WatchRunFlag(t *testing.T) {
	plainOutput(t)
	runID := uuid.New()
	srv := httptest.NewServer(readyStatusHandler(t, runID))
	defer srv.Close()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--api", srv.URL, "--run", runID.String(), "--interval", "1ms"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "http://cdn.test/final.mp4") {
		t.Errorf("output missing final url:\n%s", out.String())
	}
}

func TestRootCommand_TriggerWithMintedTokenFromEnv(t *testing.T) {
	plainOutput(t)
	secret := "dev-secret"
	thoughtID := uuid.New()
	runID := uuid.New()
	status := readyStatusHandler(t, runID)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			status(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, err := utils.ValidateTokenStringToUUID(token, secret); err != nil {
			t.Errorf("minted token rejected: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"runId": runID, "status": "pending", "started": true, "startLayer": 1, "attempt": 1},
		})
	}))
	defer srv.Close()

	t.Setenv("RUNWATCH_API", srv.URL)
	t.Setenv("RUNWATCH_JWT_SECRET", secret)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--trigger", thoughtID.String(), "--interval", "1ms"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "started at layer 1") {
		t.Errorf("output missing trigger line:\n%s", out.String())
	}
}

func TestRootCommand_RequiresRunOrTrigger(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--run or --trigger") {
		t.Fatalf("Execute() error = %v", err)
	}
}
