package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/internal/callback"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ReadyCheck probes one dependency; a nil Probe means "not configured, skip".
type ReadyCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// RegisterSystem mounts /health, /ready, the client callback page and the 404 handler.
func RegisterSystem(r *gin.Engine, startTime time.Time, checks ...ReadyCheck) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(startTime).Seconds()})
	})

	// readiness endpoint: 200 only when every configured dependency answers
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		deps := map[string]bool{}
		for _, chk := range checks {
			if chk.Probe == nil {
				continue
			}
			if err := chk.Probe(ctx); err != nil {
				logger.Warnf("readiness: %s unavailable: %v", chk.Name, err)
				deps[chk.Name] = false
				ready = false
				continue
			}
			deps[chk.Name] = true
		}
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps})
	})

	r.GET("/auth/callback", CallbackPage)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// CallbackPage stores the token handed back by the OAuth redirect and moves
// the browser on to the dashboard or back to the login page.
func CallbackPage(c *gin.Context) {
	if err := callback.Render(c.Writer, callback.Resolve(c.Request.URL.Query())); err != nil {
		logger.Errorf("callback page: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
