package server

import (
	"fmt"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/cart"
	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/GriffinCanCode/ecoswipe/internal/domain/site"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/config"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/backend"
	httpclient "github.com/GriffinCanCode/ecoswipe/internal/providers/http/client"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scraper"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/storage"
	"go.uber.org/zap"
)

// Engine holds the popup engine's collaborators. The bridge server and the
// CLI commands share it.
type Engine struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *monitoring.Metrics

	Store   storage.Store
	Pages   *storage.Adapter
	Cart    *cart.Manager
	Site    *site.Matcher
	HTTP    *httpclient.Client
	Scraper *scraper.Scraper
}

// NewEngine opens storage and builds the shared clients
func NewEngine(cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	logger.Info("Storage opened",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("path", cfg.Storage.Path),
	)

	pages := storage.NewAdapter(store,
		storage.WithMaxPages(cfg.Storage.MaxPages),
		storage.WithLogger(logger.Component("storage")),
	)

	httpClient := httpclient.NewClient(httpclient.Options{
		Timeout:           cfg.Backend.RequestTimeout.Duration,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	})

	return &Engine{
		Config:  cfg,
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
		Store:   store,
		Pages:   pages,
		Cart:    cart.NewManager(pages, logger.Component("cart")),
		Site:    site.Default(),
		HTTP:    httpClient,
		Scraper: scraper.New(httpClient),
	}, nil
}

// NewScorer builds a scoring client with a fresh backend locator, so each
// popup session probes the candidates once
func (e *Engine) NewScorer() *scoring.Client {
	locator := backend.NewLocator(e.HTTP, e.Config.Backend.Candidates,
		backend.WithProbeTimeout(e.Config.Backend.ProbeTimeout.Duration),
		backend.WithLogger(e.Logger.Component("backend")),
	)
	return scoring.NewClient(e.HTTP, locator,
		scoring.WithModel(e.Config.Backend.Model),
		scoring.WithLogger(e.Logger.Component("scoring")),
		scoring.WithRecorder(e.Metrics),
	)
}

// NewMachine builds one popup session machine
func (e *Engine) NewMachine() *session.Machine {
	scorer := e.NewScorer()

	deps := session.Deps{
		Scorer:   scorer,
		Pages:    e.Pages,
		Cart:     e.Cart,
		Site:     e.Site,
		Observer: e.Metrics,
		Logger:   e.Logger.Component("session"),
		Limit:    e.Config.Session.AlternativeLimit,
	}
	if e.Config.Session.Previews {
		deps.Previewer = scorer
	}
	return session.NewMachine(deps)
}

// Close releases storage
func (e *Engine) Close() error {
	if e.Store == nil {
		return nil
	}
	if err := e.Store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
