package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// AlertConsumer durable consumer บน RUN_EVENTS ส่ง Telegram alert
// durable name เดียวกันทุก instance = แต่ละ event ถูกแจ้งครั้งเดียว
type AlertConsumer struct {
	client     *Client
	notifier   ports.NotifierPort
	consumer   jetstream.Consumer
	cancelFunc context.CancelFunc
	done       chan struct{}
	running    bool
}

func NewAlertConsumer(client *Client, notifier ports.NotifierPort) *AlertConsumer {
	return &AlertConsumer{
		client:   client,
		notifier: notifier,
	}
}

// Start สร้าง consumer แล้ว consume ใน background
func (s *AlertConsumer) Start(ctx context.Context) error {
	if s.running {
		return nil
	}

	consumer, err := s.client.js.CreateOrUpdateConsumer(ctx, StreamRunEvents, jetstream.ConsumerConfig{
		Durable:       ConsumerRunAlerts,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
	})
	if err != nil {
		logger.Error("Failed to create run alert consumer", "error", err)
		return err
	}
	s.consumer = consumer

	subCtx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.consume(subCtx)

	logger.Info("Run alert consumer started", "consumer", ConsumerRunAlerts)
	return nil
}

func (s *AlertConsumer) consume(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := s.consumer.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			// timeout ไม่ใช่ error
			continue
		}
		for msg := range msgs.Messages() {
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *AlertConsumer) handleMessage(ctx context.Context, msg jetstream.Msg) {
	var event RunEventMessage
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error("Failed to unmarshal run event", "error", err)
		_ = msg.Term()
		return
	}

	var err error
	switch event.Status {
	case "ready":
		err = s.notifier.SendRunReadyAlert(ctx, event.RunID, event.FinalVideoURL, event.TotalDuration)
	case "failed":
		err = s.notifier.SendRunFailedAlert(ctx, event.RunID, event.ErrorLayer, event.ErrorMessage)
	}
	if err != nil {
		logger.Warn("Failed to send run alert", "run_id", event.RunID, "status", event.Status, "error", err)
		_ = msg.NakWithDelay(10 * time.Second)
		return
	}

	_ = msg.Ack()
}

// Stop หยุด consume และรอ loop จบ
func (s *AlertConsumer) Stop() {
	if !s.running {
		return
	}
	s.cancelFunc()
	<-s.done
	s.running = false

	logger.Info("Run alert consumer stopped")
}
