package http

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/auth"
	"github.com/banndicoot-king/stream-pru/internal/config"
	"github.com/banndicoot-king/stream-pru/internal/control"
	"github.com/banndicoot-king/stream-pru/internal/core"
	"github.com/banndicoot-king/stream-pru/internal/metrics"
)

// Deps are the collaborators the HTTP layer routes to.
type Deps struct {
	Hub      *core.Hub
	Sends    *control.SendList
	Auth     auth.Authenticator
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Clock    clock.Clock
}

// NewServer builds the HTTP server with every route mounted.
func NewServer(cfg config.Config, deps Deps, logger *zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, deps, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine.
func NewRouter(cfg config.Config, deps Deps, logger *zerolog.Logger) *gin.Engine {
	if deps.Sends == nil {
		deps.Sends = control.NewSendList()
	}
	if deps.Metrics == nil {
		reg := prometheus.NewRegistry()
		deps.Metrics = metrics.New(reg)
		deps.Gatherer = reg
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	ws := NewWSHandler(deps.Hub, deps.Auth, deps.Metrics, logger, WSOptions{
		SendBuffer:         cfg.SendBuffer,
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		PingInterval:       cfg.PingInterval,
		PingTimeout:        cfg.PingTimeout,
		Clock:              deps.Clock,
	})
	api := NewAPIHandlers(deps.Hub, deps.Sends, logger)

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{
		Timeout: 5 * time.Second,
	})))
	r.GET("/ws", gin.WrapH(ws))

	r.GET("/api/streams", api.ListStreams)
	r.GET("/api/streams/:id/listeners", api.ListListeners)

	r.GET("/audio", api.ListSending)
	r.POST("/audio/:id", api.StartSending)
	r.DELETE("/audio/:id", api.StopSending)

	return r
}
