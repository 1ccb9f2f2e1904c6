package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/handlers"
	"github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/middleware"
	"github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/routes"
	websocketHandler "github.com/siddiqueakber/ai-creative-director-sub001/interfaces/api/websocket"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/di"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	container := di.NewContainer()

	if err := container.Initialize(); err != nil {
		// ใช้ log พื้นฐานก่อน logger init
		panic("Failed to initialize container: " + err.Error())
	}

	cfg := container.GetConfig()

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		AppName:      cfg.App.Name,
		BodyLimit:    1 * 1024 * 1024, // thought text เท่านั้น
	})

	// Setup middleware (order matters!)
	app.Use(middleware.RequestIDMiddleware()) // ต้องมาก่อน logger
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CorsMiddleware(cfg.App.CORSOrigins))

	h := handlers.NewHandlers(container.GetHandlerServices())

	routes.SetupRoutes(app, h, routes.Options{
		JWTSecret: cfg.JWT.Secret,
		WebSocket: websocketHandler.NewWebSocketHandler(container.WebSocketManager),
		FilesRoot: container.FilesRoot(),
	})

	setupGracefulShutdown(app, container)

	port := cfg.App.Port
	logger.Info("Server starting",
		"port", port,
		"env", cfg.App.Env,
		"app", cfg.App.Name,
	)
	logger.Info("Endpoints available",
		"health", "http://localhost:"+port+"/health",
		"api", "http://localhost:"+port+"/api/v1",
		"websocket", "ws://localhost:"+port+"/ws",
	)

	if err := app.Listen(":" + port); err != nil {
		logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}

// setupGracefulShutdown หยุดรับ request ก่อน แล้วค่อยหยุด pipelines (mark interrupted) แล้วปิด connections
func setupGracefulShutdown(app *fiber.App, container *di.Container) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Warn("HTTP server shutdown error", "error", err)
		}
		if err := container.Shutdown(ctx); err != nil {
			logger.Error("Error stopping pipelines", "error", err)
		}
		if err := container.Cleanup(); err != nil {
			logger.Error("Error during cleanup", "error", err)
		}

		logger.Info("Shutdown complete")
		os.Exit(0)
	}()
}
