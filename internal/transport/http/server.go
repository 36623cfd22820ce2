// Package http provides the HTTP server implementation for the relay.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xiaot623/chatrelay/internal/config"
	"github.com/xiaot623/chatrelay/internal/service"
	v1 "github.com/xiaot623/chatrelay/internal/transport/http/v1"
	"github.com/xiaot623/chatrelay/internal/transport/ws"
)

// NewServer creates and configures the client-facing HTTP server.
// It serves the chat API, the WebSocket relay and metrics.
func NewServer(svc *service.Service, cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(Metrics())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return true, nil
		},
		ExposeHeaders: []string{v1.DataStreamHeader, echo.HeaderXRequestID},
	}))

	// Handlers
	v1Handler := v1.NewHandler(svc, v1.Options{CookieSecure: cfg.CookieSecure})
	wsServer := ws.NewServer(cfg, svc, logger)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
