package messaging

import (
	"context"
	"sync"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	natspkg "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/nats"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// NATSProgressSubscriber ProgressSubscriberPort บน core NATS
type NATSProgressSubscriber struct {
	subscriber *natspkg.Subscriber

	mu      sync.Mutex
	removes []func()
}

func NewNATSProgressSubscriber(subscriber *natspkg.Subscriber) ports.ProgressSubscriberPort {
	return &NATSProgressSubscriber{subscriber: subscriber}
}

// Subscribe handler ถูกถอดเมื่อ ctx ถูก cancel หรือเรียก Unsubscribe
func (s *NATSProgressSubscriber) Subscribe(ctx context.Context, handler ports.ProgressHandler) error {
	remove := s.subscriber.OnProgress(func(update *natspkg.ProgressUpdate) {
		if update == nil || update.RunID == "" {
			logger.Warn("Received progress update without run_id")
			return
		}
		handler(fromNATSProgress(update))
	})

	s.mu.Lock()
	s.removes = append(s.removes, remove)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		remove()
	}()

	if err := s.subscriber.Start(); err != nil {
		remove()
		return err
	}
	return nil
}

func (s *NATSProgressSubscriber) Unsubscribe() error {
	s.mu.Lock()
	removes := s.removes
	s.removes = nil
	s.mu.Unlock()

	for _, remove := range removes {
		remove()
	}
	return s.subscriber.Stop()
}
