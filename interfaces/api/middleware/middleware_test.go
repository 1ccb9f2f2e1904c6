package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

func TestRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		if logger.GetRequestID(c.UserContext()) != GetRequestID(c) {
			t.Error("request id in user context differs from locals")
		}
		return c.SendString(GetRequestID(c))
	})

	cases := []struct {
		name     string
		header   string
		keepSame bool
	}{
		{"valid client id kept", "abc-123_x.y", true},
		{"missing generates", "", false},
		{"injection replaced", "evil\nline", false},
		{"too long replaced", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set(RequestIDHeader, tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			got := resp.Header.Get(RequestIDHeader)
			if tc.keepSame {
				if got != tc.header {
					t.Errorf("request id = %q, want %q", got, tc.header)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected generated uuid, got %q", got)
			}
		})
	}
}

func TestProtected(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	token, err := utils.GenerateToken(&utils.UserContext{ID: userID}, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/me", Protected(secret), func(c *fiber.Ctx) error {
		user, err := utils.GetUserFromContext(c)
		if err != nil {
			return err
		}
		if user.ID != userID {
			t.Errorf("user id = %s, want %s", user.ID, userID)
		}
		return c.SendString(user.ID.String())
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid", "Bearer " + token, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestErrorHandlerMapsFiberErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/gone", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "nope") })

	resp, err := app.Test(httptest.NewRequest("GET", "/gone", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
