package progress

import (
	"context"
	"testing"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
)

func TestTrackerFanOutAndSnapshot(t *testing.T) {
	tr := NewTracker()
	sub := tr.Subscriber()

	var got []string
	if err := sub.Subscribe(context.Background(), func(p *ports.RunProgress) {
		got = append(got, p.Type+":"+p.Status)
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	ctx := context.Background()
	_ = tr.PublishProgress(ctx, &ports.RunProgress{RunID: "r1", Type: ports.ProgressStage, Status: "generating", Layer: 6})
	_ = tr.PublishProgress(ctx, &ports.RunProgress{Type: ports.ProgressStage, Status: "ignored"})

	if snap := tr.GetProgress("r1"); snap == nil || snap.Layer != 6 {
		t.Fatalf("GetProgress() = %+v, want layer 6", snap)
	}

	_ = tr.PublishProgress(ctx, &ports.RunProgress{RunID: "r1", Type: ports.ProgressTerminal, Status: "ready"})
	if snap := tr.GetProgress("r1"); snap != nil {
		t.Errorf("terminal update should clear snapshot, got %+v", snap)
	}

	want := []string{"stage:generating", "terminal:ready"}
	if len(got) != len(want) {
		t.Fatalf("handler saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTrackerUnsubscribe(t *testing.T) {
	tr := NewTracker()
	sub := tr.Subscriber()

	calls := 0
	_ = sub.Subscribe(context.Background(), func(*ports.RunProgress) { calls++ })
	_ = sub.Unsubscribe()
	_ = tr.PublishProgress(context.Background(), &ports.RunProgress{RunID: "r1", Type: ports.ProgressStage})

	if calls != 0 {
		t.Errorf("handler called %d times after Unsubscribe", calls)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Errorf("second Unsubscribe() error = %v", err)
	}
}

func TestTrackerHandlerPanicDoesNotStopOthers(t *testing.T) {
	tr := NewTracker()
	_ = tr.Subscriber().Subscribe(context.Background(), func(*ports.RunProgress) { panic("boom") })

	seen := false
	_ = tr.Subscriber().Subscribe(context.Background(), func(*ports.RunProgress) { seen = true })

	_ = tr.PublishProgress(context.Background(), &ports.RunProgress{RunID: "r1", Type: ports.ProgressScene})
	if !seen {
		t.Error("second handler not called after first panicked")
	}
}
