package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthStatus struct {
	Status      string    `json:"status"`
	Storage     string    `json:"storage"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

// Pinger reports whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves GET /health. Results are cached for cacheDuration so probes
// do not hammer the database.
type Health struct {
	mu            sync.Mutex
	pinger        Pinger
	logger        *zap.Logger
	version       string
	startTime     time.Time
	cacheDuration time.Duration
	last          *HealthStatus
	now           func() time.Time
}

func NewHealth(pinger Pinger, version string, logger *zap.Logger) *Health {
	return &Health{
		pinger:        pinger,
		logger:        logger,
		version:       version,
		startTime:     time.Now(),
		cacheDuration: 5 * time.Second,
		now:           time.Now,
	}
}

func (h *Health) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := h.check(c.Request.Context())
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}

func (h *Health) check(ctx context.Context) HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.last != nil && now.Sub(h.last.LastChecked) < h.cacheDuration {
		cached := *h.last
		cached.Uptime = now.Sub(h.startTime).Round(time.Second).String()
		return cached
	}

	status := HealthStatus{
		Status:      "ok",
		Storage:     "ok",
		LastChecked: now,
		Uptime:      now.Sub(h.startTime).Round(time.Second).String(),
		Version:     h.version,
	}
	if h.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(pingCtx); err != nil {
			h.logger.Warn("Storage health check failed", zap.Error(err))
			status.Status = "degraded"
			status.Storage = "unreachable"
		}
	}

	h.last = &status
	return status
}
