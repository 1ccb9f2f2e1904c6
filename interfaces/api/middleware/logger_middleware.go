package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

// path ที่ไม่ต้อง log (health check / upgrade)
var quietPrefixes = []string{"/health", "/ws"}

// LoggerMiddleware log หนึ่งบรรทัดต่อ request
// GET ที่สำเร็จลงเป็น debug เพราะ client poll status ถี่
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Path()
		for _, p := range quietPrefixes {
			if strings.HasPrefix(path, p) {
				return err
			}
		}

		status := c.Response().StatusCode()
		if err != nil {
			// error handler ยังไม่ได้เขียน status ตอนนี้
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		attrs := []any{
			"method", c.Method(),
			"path", path,
			"route", c.Route().Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}
		if user, uerr := utils.GetUserFromContext(c); uerr == nil {
			attrs = append(attrs, "user_id", user.ID.String())
		}

		ctx := c.UserContext()
		switch {
		case status >= 500:
			logger.ErrorContext(ctx, "Request failed", attrs...)
		case status >= 400:
			logger.WarnContext(ctx, "Request rejected", attrs...)
		case c.Method() == fiber.MethodGet:
			logger.DebugContext(ctx, "Request completed", attrs...)
		default:
			logger.InfoContext(ctx, "Request completed", attrs...)
		}
		return err
	}
}
