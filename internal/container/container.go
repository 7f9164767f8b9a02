package container

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/anime-shed/deepfake-inspector-go/internal/analyzer"
	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	"github.com/anime-shed/deepfake-inspector-go/internal/factory"
	"github.com/anime-shed/deepfake-inspector-go/internal/logger"
	"github.com/anime-shed/deepfake-inspector-go/internal/observer"
	"github.com/anime-shed/deepfake-inspector-go/internal/service"
	"github.com/anime-shed/deepfake-inspector-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config  *config.Config
	events  *observer.EventPublisher
	pool    *analyzer.WorkerPool
	service service.AnalysisService
	handler http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	metricsObserver, err := observer.NewMetricsObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register analysis metrics: %w", err)
	}
	events.Subscribe(metricsObserver)

	components := factory.NewComponentFactory(cfg)
	detector, err := components.Detector()
	if err != nil {
		return nil, fmt.Errorf("failed to create face detector: %w", err)
	}
	fetcher, err := components.StorageFactory.CreateFetcher()
	if err != nil {
		return nil, err
	}

	pipeline := service.NewAnalysisPipeline(service.Dependencies{
		Fetcher:   fetcher,
		Detector:  detector,
		Explainer: components.Explainer(),
		Events:    events,
	})

	pool := analyzer.NewWorkerPool(cfg.MaxConcurrentAnalyses)
	handler, err := transport.NewHandler(pipeline, pool, registry, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler: %w", err)
	}

	return &Container{
		config:  cfg,
		events:  events,
		pool:    pool,
		service: pipeline,
		handler: handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis pipeline
func (c *Container) Service() service.AnalysisService {
	return c.service
}
