package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/go-account-service/internal/container"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// OpsModule exposes /health and, when enabled, Prometheus /metrics.
type OpsModule struct {
	MetricsEnabled bool
}

func NewOpsModule(metricsEnabled bool) *OpsModule {
	return &OpsModule{MetricsEnabled: metricsEnabled}
}

func (m *OpsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", health)
	if m.MetricsEnabled {
		rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
		rg.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
	}
}

// health reports per-dependency status. Postgres and Redis are required;
// the email queue is reported but does not fail the check.
func health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ok := true
	if pool := container.GetPGPool(); pool == nil || pool.Ping(ctx) != nil {
		checks["postgres"], ok = "down", false
	} else {
		checks["postgres"] = "up"
	}
	if rdb := container.GetRedis(); rdb == nil || rdb.Ping(ctx).Err() != nil {
		checks["redis"], ok = "down", false
	} else {
		checks["redis"] = "up"
	}
	if q := container.GetEmailQueue(); q != nil {
		if q.Healthy() {
			checks["rabbitmq"] = "up"
		} else {
			checks["rabbitmq"] = "down"
		}
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ok": ok, "checks": checks})
}
