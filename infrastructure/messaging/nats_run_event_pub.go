package messaging

import (
	"context"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	natspkg "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/nats"
)

// NATSRunEventPublisher implements RunEventPublisherPort using JetStream RUN_EVENTS
type NATSRunEventPublisher struct {
	publisher *natspkg.Publisher
}

func NewNATSRunEventPublisher(publisher *natspkg.Publisher) ports.RunEventPublisherPort {
	return &NATSRunEventPublisher{
		publisher: publisher,
	}
}

func (p *NATSRunEventPublisher) PublishRunEvent(ctx context.Context, event *ports.RunEvent) error {
	return p.publisher.PublishRunEvent(ctx, &natspkg.RunEventMessage{
		RunID:         event.RunID,
		ThoughtID:     event.ThoughtID,
		Status:        event.Status,
		Attempt:       event.Attempt,
		ErrorLayer:    event.ErrorLayer,
		ErrorMessage:  event.ErrorMessage,
		FinalVideoURL: event.FinalVideoURL,
		TotalDuration: event.TotalDuration,
		OccurredAt:    event.OccurredAt,
	})
}
