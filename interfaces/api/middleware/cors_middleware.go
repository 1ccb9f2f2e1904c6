package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CorsMiddleware origins คั่นด้วย comma; "*" ปิด credentials (fiber ไม่ยอมให้ใช้คู่กัน)
func CorsMiddleware(allowOrigins string) fiber.Handler {
	origins := strings.TrimSpace(allowOrigins)
	if origins == "" {
		origins = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodHead, fiber.MethodOptions}, ","),
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization," + RequestIDHeader,
		ExposeHeaders:    "Content-Length,Content-Type," + RequestIDHeader,
		AllowCredentials: origins != "*",
		MaxAge:           600,
	})
}
