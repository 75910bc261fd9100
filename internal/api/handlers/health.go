package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/database"
)

type HealthHandler struct {
	db    *database.DB
	redis *redis.Client
	hub   *services.WebSocketHub
}

func NewHealthHandler(db *database.DB, redisClient *redis.Client, hub *services.WebSocketHub) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, hub: hub}
}

// Health reports liveness plus dependency status.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := gin.H{}

	if h.db != nil {
		dbStatus := "ok"
		if sqlDB, err := h.db.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "down"
			status = "degraded"
		}
		checks["database"] = dbStatus
	}

	if h.redis != nil {
		redisStatus := "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
			status = "degraded"
		}
		checks["redis"] = redisStatus
	}

	if h.hub != nil {
		checks["websocket_clients"] = h.hub.ConnectionCount()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"time":   time.Now().UTC(),
		"checks": checks,
	})
}
