package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness; hosting platforms poll it to keep the
// bot process alive.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "Bot is running"})
}
