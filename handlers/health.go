package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// Health answers GET /health for one app.
type Health struct {
	checks  map[string]Checker
	startAt time.Time
}

// NewHealth returns a health handler running the given dependency checks.
func NewHealth(checks map[string]Checker) *Health {
	return &Health{checks: checks, startAt: time.Now()}
}

// Handle reports "healthy", or "degraded" with 503 when a check fails.
func (h *Health) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	checks := gin.H{}
	for name, checker := range h.checks {
		start := time.Now()
		err := checker.CheckHealth(ctx)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			status = "degraded"
			checks[name] = gin.H{"status": "down", "latency_ms": latency, "error": err.Error()}
			continue
		}
		checks[name] = gin.H{"status": "up", "latency_ms": latency}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":         status,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	})
}

// CheckFunc adapts a plain function to Checker.
type CheckFunc func(ctx context.Context) error

// CheckHealth calls f.
func (f CheckFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}
