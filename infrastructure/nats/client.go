package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// Client wraps NATS connection with JetStream context
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream // RUN_EVENTS
}

type ClientConfig struct {
	URL  string // nats://localhost:4222
	Name string
}

// NewClient สร้าง NATS Client พร้อม JetStream และ RUN_EVENTS stream
func NewClient(cfg ClientConfig) (*Client, error) {
	name := cfg.Name
	if name == "" {
		name = "ai-creative-director"
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{
		conn: nc,
		js:   js,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.setupStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("NATS client initialized", "url", cfg.URL, "stream", StreamRunEvents)
	return client, nil
}

// setupStream สร้างหรืออัปเดต RUN_EVENTS
// LimitsPolicy: event อยู่ครบ MaxAge ให้ consumer หลายตัวอ่านซ้ำได้ (ไม่ใช่ work queue)
func (c *Client) setupStream(ctx context.Context) error {
	stream, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamRunEvents,
		Subjects:    []string{SubjectRunEvents + ".*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Replicas:    1,
		Description: "Terminal run outcomes (ready / failed)",
	})
	if err != nil {
		return fmt.Errorf("failed to create/update run events stream: %w", err)
	}
	c.stream = stream
	logger.Info("JetStream stream ready", "name", StreamRunEvents)
	return nil
}

// Conn returns the underlying NATS connection
func (c *Client) Conn() *nats.Conn {
	return c.conn
}

// JetStream returns the JetStream context
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// ═══════════════════════════════════════════════════════════════════════════════
// JetStream Status (health endpoint)
// ═══════════════════════════════════════════════════════════════════════════════

// GetStatus ดึงสถานะของ RUN_EVENTS และ alert consumer
func (c *Client) GetStatus(ctx context.Context) (*JetStreamStatus, error) {
	streamInfo, err := c.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	// consumer อาจยังไม่มีถ้า alert consumer ยังไม่ start
	var consumerInfo ConsumerInfo
	consumer, err := c.stream.Consumer(ctx, ConsumerRunAlerts)
	if err == nil {
		ci, err := consumer.Info(ctx)
		if err == nil {
			consumerInfo = ConsumerInfo{
				Name:          ci.Name,
				NumPending:    ci.NumPending,
				NumAckPending: ci.NumAckPending,
				Redelivered:   uint64(ci.NumRedelivered),
			}
		}
	}

	return &JetStreamStatus{
		Stream: StreamInfo{
			Name:     streamInfo.Config.Name,
			Messages: streamInfo.State.Msgs,
			Bytes:    streamInfo.State.Bytes,
			FirstSeq: streamInfo.State.FirstSeq,
			LastSeq:  streamInfo.State.LastSeq,
		},
		Consumer: consumerInfo,
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Lifecycle
// ═══════════════════════════════════════════════════════════════════════════════

// Close drain subscriptions แล้วปิด connection
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return err
	}
	logger.Info("NATS connection closed")
	return nil
}

// Ping round-trip ไป server (ไม่ใช่แค่ดู state ของ connection)
func (c *Client) Ping(ctx context.Context) error {
	if !c.conn.IsConnected() {
		return fmt.Errorf("nats not connected: %s", c.conn.Status())
	}
	return c.conn.FlushWithContext(ctx)
}
