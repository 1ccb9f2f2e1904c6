package nats

import (
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// ProgressHandler รับ update ตามลำดับที่ publish (ต่อ subject)
type ProgressHandler func(update *ProgressUpdate)

const progressBuffer = 256

// Subscriber core NATS (ไม่ durable) บน progress.run.>
// ข้อความถูกส่งเข้า channel แล้ว dispatch โดย goroutine เดียว
// handler ช้าจึงไม่ block read loop ของ connection
type Subscriber struct {
	conn *nats.Conn

	mu       sync.Mutex
	handlers map[int]ProgressHandler
	nextID   int
	sub      *nats.Subscription
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{
		conn:     conn,
		handlers: make(map[int]ProgressHandler),
	}
}

// OnProgress คืน func สำหรับถอด handler
func (s *Subscriber) OnProgress(handler ProgressHandler) (remove func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Start idempotent
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return nil
	}

	msgs := make(chan *nats.Msg, progressBuffer)
	sub, err := s.conn.ChanSubscribe(SubjectProgress+".>", msgs)
	if err != nil {
		return err
	}
	s.sub = sub
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.dispatch(msgs, s.stop)

	logger.Info("NATS progress subscriber started", "subject", SubjectProgress+".>")
	return nil
}

func (s *Subscriber) dispatch(msgs <-chan *nats.Msg, stop <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		case msg := <-msgs:
			s.deliver(msg)
		}
	}
}

func (s *Subscriber) deliver(msg *nats.Msg) {
	var update ProgressUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		logger.Warn("Dropping malformed progress update", "subject", msg.Subject, "error", err)
		return
	}

	s.mu.Lock()
	handlers := make([]ProgressHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		s.safeCall(h, update)
	}
}

func (s *Subscriber) safeCall(h ProgressHandler, update ProgressUpdate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Progress handler panicked", "run_id", update.RunID, "panic", r)
		}
	}()
	h(&update)
}

// Stop unsubscribe แล้วรอ dispatch goroutine จบ
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	sub, stop := s.sub, s.stop
	s.sub, s.stop = nil, nil
	s.mu.Unlock()

	if sub == nil {
		return nil
	}

	err := sub.Unsubscribe()
	close(stop)
	s.wg.Wait()

	logger.Info("NATS progress subscriber stopped")
	return err
}

func (s *Subscriber) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}
