package progress

import (
	"context"
	"sync"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// Tracker in-process progress bus ใช้แทน NATS เมื่อ NATS ไม่พร้อม (single instance)
// เก็บ progress ล่าสุดของแต่ละ run ไว้ให้ client ที่เพิ่ง join ดึงได้
type Tracker struct {
	mutex    sync.RWMutex
	progress map[string]*ports.RunProgress // key: runID
	handlers map[int]ports.ProgressHandler
	nextID   int
}

var (
	_ ports.ProgressPublisherPort = (*Tracker)(nil)
)

func NewTracker() *Tracker {
	return &Tracker{
		progress: make(map[string]*ports.RunProgress),
		handlers: make(map[int]ports.ProgressHandler),
	}
}

// PublishProgress ส่งต่อแบบ sync ตามลำดับที่ publish (คงลำดับของแต่ละ run)
func (t *Tracker) PublishProgress(ctx context.Context, update *ports.RunProgress) error {
	if update == nil || update.RunID == "" {
		return nil
	}
	copied := *update

	t.mutex.Lock()
	if copied.Type == ports.ProgressTerminal {
		delete(t.progress, copied.RunID)
	} else {
		t.progress[copied.RunID] = &copied
	}
	handlers := make([]ports.ProgressHandler, 0, len(t.handlers))
	for _, h := range t.handlers {
		handlers = append(handlers, h)
	}
	t.mutex.Unlock()

	for _, h := range handlers {
		t.dispatch(h, copied)
	}
	return nil
}

func (t *Tracker) dispatch(h ports.ProgressHandler, update ports.RunProgress) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Progress handler panicked", "run_id", update.RunID, "error", r)
		}
	}()
	h(&update)
}

// GetProgress progress ล่าสุดของ run ที่ยังไม่จบ (nil ถ้าไม่มี)
func (t *Tracker) GetProgress(runID string) *ports.RunProgress {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if data, ok := t.progress[runID]; ok {
		copied := *data
		return &copied
	}
	return nil
}

// Subscriber คืน ProgressSubscriberPort ที่ผูกกับ tracker นี้
func (t *Tracker) Subscriber() ports.ProgressSubscriberPort {
	return &subscription{tracker: t, id: -1}
}

func (t *Tracker) add(h ports.ProgressHandler) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	id := t.nextID
	t.nextID++
	t.handlers[id] = h
	return id
}

func (t *Tracker) remove(id int) {
	t.mutex.Lock()
	delete(t.handlers, id)
	t.mutex.Unlock()
}

type subscription struct {
	tracker *Tracker
	mu      sync.Mutex
	id      int
	stop    context.CancelFunc
}

func (s *subscription) Subscribe(ctx context.Context, handler ports.ProgressHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id >= 0 {
		return nil
	}

	ctx, s.stop = context.WithCancel(ctx)
	s.id = s.tracker.add(func(p *ports.RunProgress) {
		if ctx.Err() != nil {
			return
		}
		handler(p)
	})

	id := s.id
	go func() {
		<-ctx.Done()
		s.tracker.remove(id)
	}()
	return nil
}

func (s *subscription) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id < 0 {
		return nil
	}
	s.stop()
	s.tracker.remove(s.id)
	s.id = -1
	return nil
}
