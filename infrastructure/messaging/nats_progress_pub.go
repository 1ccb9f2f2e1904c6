package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	natspkg "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/nats"
)

// NATSProgressPublisher implements ProgressPublisherPort using NATS Pub/Sub
type NATSProgressPublisher struct {
	conn *nats.Conn
}

// NewNATSProgressPublisher สร้าง ProgressPublisherPort adapter สำหรับ NATS
func NewNATSProgressPublisher(conn *nats.Conn) ports.ProgressPublisherPort {
	return &NATSProgressPublisher{
		conn: conn,
	}
}

// PublishProgress ส่ง progress ไปที่ progress.run.<runID>
func (p *NATSProgressPublisher) PublishProgress(ctx context.Context, progress *ports.RunProgress) error {
	if progress == nil {
		return fmt.Errorf("progress cannot be nil")
	}
	if progress.RunID == "" {
		return fmt.Errorf("run_id is required")
	}

	data, err := json.Marshal(toNATSProgress(progress))
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	return p.conn.Publish(natspkg.ProgressSubject(progress.RunID), data)
}

func toNATSProgress(p *ports.RunProgress) *natspkg.ProgressUpdate {
	return &natspkg.ProgressUpdate{
		RunID:        p.RunID,
		Type:         p.Type,
		Status:       p.Status,
		Layer:        p.Layer,
		Stage:        p.Stage,
		SceneIndex:   p.SceneIndex,
		SceneStatus:  p.SceneStatus,
		Progress:     p.Progress,
		Message:      p.Message,
		Error:        p.Error,
		VideoURL:     p.VideoURL,
		ThumbnailURL: p.ThumbnailURL,
	}
}

func fromNATSProgress(u *natspkg.ProgressUpdate) *ports.RunProgress {
	return &ports.RunProgress{
		RunID:        u.RunID,
		Type:         u.Type,
		Status:       u.Status,
		Layer:        u.Layer,
		Stage:        u.Stage,
		SceneIndex:   u.SceneIndex,
		SceneStatus:  u.SceneStatus,
		Progress:     u.Progress,
		Message:      u.Message,
		Error:        u.Error,
		VideoURL:     u.VideoURL,
		ThumbnailURL: u.ThumbnailURL,
	}
}
