package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

// ErrorHandler fallback ของ fiber สำหรับ error ที่ handler ไม่ได้ตอบเอง
// error ที่ไม่ใช่ *fiber.Error ไม่ส่ง message จริงออกไป
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		ctx := c.UserContext()
		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(ctx, "Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		} else {
			logger.DebugContext(ctx, "Request error", "path", c.Path(), "status", status, "error", err)
		}

		return utils.ErrorResponse(c, status, utils.CodeForStatus(status), message, nil)
	}
}
