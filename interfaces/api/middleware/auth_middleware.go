package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

// Protected ต้องมี Bearer token ที่ valid ไม่งั้น 401 ก่อนถึง handler
func Protected(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		userCtx, err := utils.ValidateTokenStringToUUID(token, jwtSecret)
		if err != nil {
			logger.WarnContext(c.UserContext(), "Token validation failed", "error", err, "path", c.Path())
			switch {
			case errors.Is(err, utils.ErrExpiredToken):
				return utils.UnauthorizedResponse(c, "Token has expired")
			case errors.Is(err, utils.ErrMissingToken):
				return utils.UnauthorizedResponse(c, "Missing token")
			default:
				return utils.UnauthorizedResponse(c, "Invalid token")
			}
		}

		utils.SetUserContext(c, userCtx)
		return c.Next()
	}
}

// Optional ใส่ user context ถ้ามี token ที่ valid ; token เสียก็ผ่านเป็น anonymous
func Optional(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := utils.ExtractTokenFromHeader(c.Get("Authorization"))
		if token == "" {
			// browser websocket ส่ง header ไม่ได้ ใช้ ?token= แทน
			token = c.Query("token")
		}
		if token == "" {
			return c.Next()
		}

		if userCtx, err := utils.ValidateTokenStringToUUID(token, jwtSecret); err == nil {
			utils.SetUserContext(c, userCtx)
		}
		return c.Next()
	}
}
