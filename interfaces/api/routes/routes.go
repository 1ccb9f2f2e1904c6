package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/handlers"
	"github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/middleware"
	websocketHandler "github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/websocket"
)

type Options struct {
	JWTSecret string
	WebSocket *websocketHandler.WebSocketHandler // nil = ไม่เปิด /ws
	FilesRoot string                             // local storage เท่านั้น
}

func SetupRoutes(app *fiber.App, h *handlers.Handlers, opts Options) {
	SetupHealthRoutes(app, h)

	api := app.Group("/api/v1")
	SetupThoughtRoutes(api, h, opts.JWTSecret)
	SetupRunRoutes(api, h, opts.JWTSecret)
	SetupMonitoringRoutes(api, h)

	if opts.FilesRoot != "" {
		app.Static("/files", opts.FilesRoot, fiber.Static{ByteRange: true})
	}

	if opts.WebSocket != nil {
		SetupWebSocketRoutes(app, opts.WebSocket, opts.JWTSecret)
	}
}

func SetupHealthRoutes(app *fiber.App, h *handlers.Handlers) {
	app.Get("/health", h.HealthHandler.Live)
	app.Get("/health/ready", h.HealthHandler.Ready)
}

func SetupThoughtRoutes(api fiber.Router, h *handlers.Handlers, jwtSecret string) {
	thoughts := api.Group("/thoughts")
	thoughts.Post("/", middleware.Protected(jwtSecret), h.ThoughtHandler.Create) // POST /api/v1/thoughts
	thoughts.Get("/:id", h.ThoughtHandler.GetByID)                               // GET /api/v1/thoughts/:id
}

func SetupRunRoutes(api fiber.Router, h *handlers.Handlers, jwtSecret string) {
	runs := api.Group("/runs")
	runs.Post("/", middleware.Protected(jwtSecret), h.RunHandler.Trigger) // POST /api/v1/runs
	runs.Get("/", h.RunHandler.List)                                      // GET /api/v1/runs
	runs.Get("/:id", h.RunHandler.GetStatus)                              // GET /api/v1/runs/:id
	runs.Get("/:id/history", h.RunHandler.GetHistory)                     // GET /api/v1/runs/:id/history
}

func SetupMonitoringRoutes(api fiber.Router, h *handlers.Handlers) {
	api.Get("/monitoring/jetstream", h.HealthHandler.JetStream)
}

func SetupWebSocketRoutes(app *fiber.App, wsHandler *websocketHandler.WebSocketHandler, jwtSecret string) {
	app.Use("/ws", middleware.Optional(jwtSecret), wsHandler.WebSocketUpgrade)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))
}
