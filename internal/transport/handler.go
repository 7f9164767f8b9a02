package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/deepfake-inspector-go/internal/analyzer"
	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	"github.com/anime-shed/deepfake-inspector-go/internal/logger"
	"github.com/anime-shed/deepfake-inspector-go/internal/service"
	"github.com/anime-shed/deepfake-inspector-go/pkg/models"
	"github.com/anime-shed/deepfake-inspector-go/pkg/validation"
)

// Version is reported by GET /health
const Version = "1.0.0"

// Registry is both where the HTTP collectors are registered and what
// GET /metrics exposes
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

type handler struct {
	service   service.AnalysisService
	pool      *analyzer.WorkerPool
	validator *validation.URLValidator
	cfg       *config.Config
}

// NewHandler builds the gin engine serving /analyze, /health and /metrics
func NewHandler(svc service.AnalysisService, pool *analyzer.WorkerPool, reg Registry, cfg *config.Config) (http.Handler, error) {
	metrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	h := &handler{
		service:   svc,
		pool:      pool,
		validator: validation.NewURLValidator(),
		cfg:       cfg,
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		recovery(),
		requestID(),
		requestLogger(),
		metrics.handler(),
		corsMiddleware(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", h.analyzeMedia)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.NoMethod(methodNotAllowed)

	return r, nil
}

func (h *handler) analyzeMedia(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		code := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			code = http.StatusRequestEntityTooLarge
		}
		respondError(c, code, "invalid request format", err)
		return
	}

	if err := h.validator.ValidateRequest(&req); err != nil {
		respondError(c, determineStatusCode(err), "invalid media URL", err)
		return
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"url":  req.URL,
		"type": req.Type,
	})
	log.Debug("Processing media analysis request")

	var result models.AnalysisResult
	err := h.pool.Submit(ctx, func() {
		result = h.service.Analyze(ctx, req.Reference())
	})
	if err != nil {
		log.WithField("workers", h.pool.Size()).Warn("No analysis slot before the request ended")
		respondError(c, http.StatusServiceUnavailable, "analysis capacity exhausted", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func methodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, models.ErrorResponse{
		Error:   http.StatusText(http.StatusMethodNotAllowed),
		Message: "Method not allowed",
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}
