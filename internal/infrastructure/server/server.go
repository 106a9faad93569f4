package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	apihttp "github.com/GriffinCanCode/ecoswipe/internal/api/http"
	"github.com/GriffinCanCode/ecoswipe/internal/api/middleware"
	"github.com/GriffinCanCode/ecoswipe/internal/api/ws"
	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/config"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server wraps the popup bridge router and its dependencies
type Server struct {
	engine   *Engine
	router   *gin.Engine
	registry *session.Registry
	limiter  *middleware.Limiter
	logger   *logging.Logger
	config   *config.Config
}

// NewServer creates the engine and the bridge on top of it
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewOrNop(logging.DevelopmentConfig())
	} else {
		logger = logging.NewOrNop(logging.Config{Level: cfg.Logging.Level})
	}

	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithEngine(engine), nil
}

// NewWithEngine builds the router over an existing engine
func NewWithEngine(engine *Engine) *Server {
	cfg, logger := engine.Config, engine.Logger

	logger.Info("Initializing EcoSwipe bridge",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Strings("backends", cfg.Backend.Candidates),
	)

	registry := session.NewRegistry(engine.NewMachine, logger.Component("registry"))

	gin.SetMode(gin.ReleaseMode)
	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(engine.Metrics))
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: middleware.DefaultCORSConfig().AllowMethods,
		AllowHeaders: middleware.DefaultCORSConfig().AllowHeaders,
		MaxAge:       middleware.DefaultCORSConfig().MaxAge,
	}))

	var limiter *middleware.Limiter
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limiter = middleware.NewLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		router.Use(limiter.Middleware())
	}

	handlers := apihttp.NewHandlers(
		registry,
		engine.Cart,
		engine.Site,
		engine.Scraper,
		apihttp.NewHandlerMetrics(engine.Metrics),
		logger.Component("http"),
	)
	handlers.Register(router)

	wsHandler := ws.NewHandler(registry, engine.Metrics, logger.Component("ws"))
	router.GET("/popup/:id/ws", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(engine.Metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		engine:   engine,
		router:   router,
		registry: registry,
		limiter:  limiter,
		logger:   logger,
		config:   cfg,
	}
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Registry returns the popup registry
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// sweep prunes idle popups and rate limiter entries
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pruning pass
func (s *Server) Sweep() {
	if idle := s.config.Server.PopupIdle.Duration; idle > 0 {
		s.registry.Prune(idle)
		s.engine.Metrics.SetPopupsActive(int(s.registry.Stats().Active))
	}
	if s.limiter != nil {
		s.limiter.Cleanup()
	}
}

// Close closes every popup and the engine
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.registry.CloseAll()
	if err := s.engine.Close(); err != nil {
		s.logger.Error("Failed to close engine", zap.Error(err))
		return err
	}

	_ = s.logger.Sync()
	return nil
}
