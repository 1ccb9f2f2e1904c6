package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// Publisher publishes terminal run events to JetStream
type Publisher struct {
	client *Client
}

// NewPublisher สร้าง Publisher ใหม่
func NewPublisher(client *Client) *Publisher {
	return &Publisher{
		client: client,
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Publish Methods
// ═══════════════════════════════════════════════════════════════════════════════

// PublishRunEvent ส่ง event ไปยัง RUN_EVENTS
// Nats-Msg-Id = run-attempt-status ทำให้ publish ซ้ำ (retry) ไม่เกิด event ซ้ำใน stream
func (p *Publisher) PublishRunEvent(ctx context.Context, event *RunEventMessage) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}

	ack, err := p.client.js.Publish(ctx, RunEventSubject(event.Status), data,
		jetstream.WithMsgID(event.MsgID()),
	)
	if err != nil {
		logger.Error("Failed to publish run event",
			"run_id", event.RunID,
			"status", event.Status,
			"error", err,
		)
		return fmt.Errorf("failed to publish run event: %w", err)
	}

	logger.Info("Run event published to JetStream",
		"run_id", event.RunID,
		"status", event.Status,
		"attempt", event.Attempt,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Stream Inspection
// ═══════════════════════════════════════════════════════════════════════════════

// GetJetStreamStatus ดึงสถานะ JetStream (health endpoint)
func (p *Publisher) GetJetStreamStatus(ctx context.Context) (*JetStreamStatus, error) {
	return p.client.GetStatus(ctx)
}
