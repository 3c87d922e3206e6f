package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mehron-dev/confessio/internal/confessions"
	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/repositories"
)

// ConfessionHandler serves the read-only HTTP view of approved
// confessions and their comment threads.
type ConfessionHandler struct {
	svc *confessions.Service
}

// NewConfessionHandler creates a new ConfessionHandler
func NewConfessionHandler(svc *confessions.Service) *ConfessionHandler {
	return &ConfessionHandler{svc: svc}
}

// RegisterConfessionRoutes registers confession-related routes
func (h *ConfessionHandler) RegisterConfessionRoutes(g *echo.Group) {
	g.GET("/confessions/:id", h.GetConfession)
	g.GET("/confessions/:id/comments", h.GetConfessionComments)
}

// GetConfession retrieves an approved confession by ID
func (h *ConfessionHandler) GetConfession(c echo.Context) error {
	confession, err := h.lookupApproved(c)
	if err != nil {
		return err
	}

	count, err := h.svc.CountComments(c.Request().Context(), confession.ConfessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"confession_id":  confession.ConfessionID,
		"text":           confession.Text,
		"created_at":     confession.CreatedAt,
		"comments_count": count,
	})
}

// GetConfessionComments retrieves the comment thread of an approved
// confession, top-level comments oldest first with replies grouped by
// parent.
func (h *ConfessionHandler) GetConfessionComments(c echo.Context) error {
	confession, err := h.lookupApproved(c)
	if err != nil {
		return err
	}

	thread, err := h.svc.GetThread(c.Request().Context(), confession.ConfessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"confession_id": confession.ConfessionID,
		"comments":      thread.TopLevel,
		"replies":       thread.Replies,
		"total":         thread.Total,
	})
}

func (h *ConfessionHandler) lookupApproved(c echo.Context) (*models.Confession, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid confession ID")
	}

	confession, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrConfessionNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Confession not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if confession.Status != models.StatusApproved {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Confession not found")
	}
	return confession, nil
}
