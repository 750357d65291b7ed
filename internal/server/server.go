// Package server assembles the gin engine: access logging, recovery, CORS,
// the interception pipeline, operational endpoints, and a reverse proxy to
// the downstream application for everything the pipeline lets through.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/backline-hq/tenantgate/internal/config"
	"github.com/backline-hq/tenantgate/internal/gateway"
)

// Server is the HTTP front of the gateway.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	gw     *gateway.Gateway
}

func New(cfg *config.Config, logger *zap.Logger, gw *gateway.Gateway) *Server {
	return &Server{cfg: cfg, logger: logger, gw: gw}
}

// Router builds the engine. Health and metrics are registered as routes but
// still pass the pipeline; both are on the public allow-list so they stay
// reachable without a session.
func (s *Server) Router() (*gin.Engine, error) {
	target, err := url.Parse(s.cfg.Upstream.URL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error("upstream proxy error",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())
	router.Use(s.gw.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Everything else goes to the downstream application.
	router.NoRoute(gin.WrapH(proxy))

	return router, nil
}

// Run serves until ctx is canceled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	router, err := s.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("gateway listening", zap.String("addr", s.cfg.Server.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
