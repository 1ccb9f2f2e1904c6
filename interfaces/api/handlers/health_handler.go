package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

// HealthCheck dependency หนึ่งตัว (postgres, redis, nats)
type HealthCheck struct {
	Name     string
	Required bool // required ล่ม = 503
	Ping     func(ctx context.Context) error
}

// JetStreamStatusFunc คืนสถานะ stream/consumer ของ RUN_EVENTS
type JetStreamStatusFunc func(ctx context.Context) (interface{}, error)

type HealthHandler struct {
	checks    []HealthCheck
	jetStream JetStreamStatusFunc
}

func NewHealthHandler(checks []HealthCheck, jetStream JetStreamStatusFunc) *HealthHandler {
	return &HealthHandler{checks: checks, jetStream: jetStream}
}

// Live GET /health
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Ready GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	deps := make(fiber.Map, len(h.checks))
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			deps[check.Name] = fiber.Map{"ok": false, "error": err.Error()}
			if check.Required {
				status = fiber.StatusServiceUnavailable
			}
			logger.WarnContext(ctx, "Health check failed", "dependency", check.Name, "error", err)
			continue
		}
		deps[check.Name] = fiber.Map{"ok": true}
	}

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":       state,
		"dependencies": deps,
	})
}

// JetStream GET /api/v1/monitoring/jetstream
func (h *HealthHandler) JetStream(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if h.jetStream == nil {
		return utils.ServiceUnavailableResponse(c, "NATS not available")
	}

	status, err := h.jetStream(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to get JetStream status", "error", err)
		return utils.InternalServerErrorResponse(c)
	}
	return utils.SuccessResponse(c, status)
}
