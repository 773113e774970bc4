package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/simbridge/internal/bridge"
	"github.com/danmuck/simbridge/internal/logging"
	"github.com/danmuck/simbridge/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

// SessionSource is the read-only view of the running session.
type SessionSource interface {
	Session() (bridge.SessionInfo, bool)
	Ready() bool
}

// Server is the optional HTTP surface for health, metrics and session state.
type Server struct {
	Addr     string
	Appeared time.Time

	source SessionSource
	log    zerolog.Logger
	router *gin.Engine
	http   *http.Server
	ln     net.Listener
}

func New(addr string, source SessionSource) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	s := &Server{
		Addr:     addr,
		Appeared: time.Now(),
		source:   source,
		log:      logging.Component("admin"),
		router:   r,
	}
	r.Use(gin.Recovery())
	r.Use(observability.AdminMiddleware(s.log, s.sessionLabel))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	s.registerRoutes()
	return s
}

func (s *Server) sessionLabel() (observability.SessionLabel, bool) {
	info, ok := s.source.Session()
	if !ok {
		return observability.SessionLabel{}, false
	}
	return observability.SessionLabel{ID: info.ID, State: info.State}, true
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": "simbridge",
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.source.Ready()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.Appeared).String(),
			"service": "simbridge",
			"version": version,
		})
	})

	s.router.GET("/session", func(c *gin.Context) {
		info, ok := s.source.Session()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no session started"})
			return
		}
		c.JSON(http.StatusOK, info)
	})
}

// Start binds Addr and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.Addr = ln.Addr().String()
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Str("addr", s.Addr).Msg("admin server stopped")
		}
	}()
	s.log.Info().Str("addr", s.Addr).Msg("admin server listening")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
