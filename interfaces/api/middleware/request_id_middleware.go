package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDLocal  = "request_id"
	maxRequestIDLen = 64
)

// RequestIDMiddleware ใช้ X-Request-ID ของ client ถ้าถูกรูปแบบ ไม่งั้นสร้างใหม่
// id ไหลต่อไปถึง pipeline log ของ run ที่ trigger จาก request นี้
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDHeader, requestID)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), requestID))
		c.Locals(requestIDLocal, requestID)

		return c.Next()
	}
}

// validRequestID ตัวอักษร ตัวเลข - _ . เท่านั้น (กัน log injection)
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

func GetRequestID(c *fiber.Ctx) string {
	if requestID, ok := c.Locals(requestIDLocal).(string); ok {
		return requestID
	}
	return ""
}
