package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/mehron-dev/confessio/internal/confessions"
	"github.com/mehron-dev/confessio/internal/handlers"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures the health endpoint and the read-only
// confession API.
func SetupRoutes(e *echo.Echo, svc *confessions.Service) {
	e.GET("/healthz", handlers.HealthCheck)

	api := e.Group("/api/v1")
	confessionHandler := handlers.NewConfessionHandler(svc)
	confessionHandler.RegisterConfessionRoutes(api)

	log.Println("Routes configured.")
}
