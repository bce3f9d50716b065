// Package server exposes a predict.Service over HTTP with gin.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"croprec/internal/predict"
)

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Addr:            ":5000",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

type Server struct {
	svc     *predict.Service
	logger  *zap.Logger
	metrics *Metrics
	engine  *gin.Engine
	opts    Options
}

func New(svc *predict.Service, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:     svc,
		logger:  logger,
		metrics: NewMetrics(),
		engine:  gin.New(),
		opts:    opts,
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddAllowHeaders(HeaderRequestID)
	corsCfg.AddExposeHeaders(HeaderRequestID)

	s.engine.Use(
		requestID(),
		s.metrics.middleware(),
		accessLog(logger),
		recovery(logger, s.metrics),
		cors.New(corsCfg),
	)
	s.engine.POST("/predict", s.handlePredict)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/model", s.handleModel)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is done, then drains in-flight requests for at most
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", zap.String("addr", hs.Addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
