package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/campuspay/fee-ledger-api/internal/service"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
	"github.com/campuspay/fee-ledger-api/pkg/response"
)

// HealthHandler exposes liveness, readiness and metrics endpoints.
type HealthHandler struct {
	db      *sqlx.DB
	redis   *redis.Client
	metrics *service.MetricsService
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, metrics: metrics}
}

// Health reports process liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}

// Ready reports whether the backing stores answer. Redis is optional; only
// the database gates readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "redis": "disabled"}
	if h.db == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "database not configured"))
		return
	}
	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unreachable"
		} else {
			checks["redis"] = "ok"
		}
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ready", "checks": checks}, nil)
}

// Metrics serves the Prometheus scrape endpoint.
func (h *HealthHandler) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Status returns an aggregated runtime snapshot for operators who want a quick
// JSON view without scraping Prometheus.
func (h *HealthHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
