package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/database"
)

type HealthHandler struct {
	logger *logrus.Logger
	db     *database.Database
}

func NewHealthHandler(logger *logrus.Logger, db *database.Database) *HealthHandler {
	return &HealthHandler{logger: logger, db: db}
}

// Check pings the engine's dependencies. Redis failure is degraded but
// still operational; a database failure is unhealthy.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	components := gin.H{}
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.PG.Ping(ctx); err != nil {
		components["postgres"] = "unhealthy"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		components["postgres"] = "healthy"
	}

	if err := h.db.Redis.Hot.Ping(ctx).Err(); err != nil {
		components["redis_hot"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		components["redis_hot"] = "healthy"
	}

	if err := h.db.Redis.Warm.Ping(ctx).Err(); err != nil {
		components["redis_warm"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		components["redis_warm"] = "healthy"
	}

	c.JSON(httpStatus, gin.H{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC(),
	})
}
