package http

import (
	"context"
	"net/http"
	"time"

	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves liveness. db may be nil, in which case storage is not checked.
type Handler struct {
	clock clock.Clock
	db    Pinger
}

func NewHandler(c clock.Clock, db Pinger) *Handler { return &Handler{clock: c, db: db} }

func (h *Handler) Health(c echo.Context) error {
	now := h.clock.Now().UTC().Format(time.RFC3339Nano)
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.CtxError(ctx, "health: database ping failed", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"time":   now,
				"error":  "database unreachable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   now,
	})
}
