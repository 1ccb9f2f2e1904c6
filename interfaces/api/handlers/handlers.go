package handlers

import (
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
)

// Services contains all the services needed for handlers
type Services struct {
	PipelineService services.PipelineService
	ThoughtService  services.ThoughtService
	Health          []HealthCheck       // dependency checks ของ /health/ready
	JetStream       JetStreamStatusFunc // nil ถ้าไม่มี NATS
}

// Handlers contains all HTTP handlers
type Handlers struct {
	RunHandler     *RunHandler
	ThoughtHandler *ThoughtHandler
	HealthHandler  *HealthHandler
}

func NewHandlers(services *Services) *Handlers {
	return &Handlers{
		RunHandler:     NewRunHandler(services.PipelineService),
		ThoughtHandler: NewThoughtHandler(services.ThoughtService),
		HealthHandler:  NewHealthHandler(services.Health, services.JetStream),
	}
}
