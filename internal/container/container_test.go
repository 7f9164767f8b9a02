package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/deepfake-inspector-go/internal/config"
)

func remoteConfig() *config.Config {
	return &config.Config{
		Port:                  "8080",
		RequestTimeout:        time.Second,
		MediaFetchTimeout:     time.Second,
		ExplanationTimeout:    time.Second,
		MaxRequestBodySize:    1024,
		MaxConcurrentAnalyses: 2,
		FaceDetector:          config.DetectorRemote,
		FaceDetectorURL:       "http://127.0.0.1:9/detect",
		FaceMinConfidence:     0.5,
	}
}

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, err := NewContainer(remoteConfig())
	require.NoError(t, err)
	assert.NotNil(t, c.Service())

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewContainer_DefaultPigoBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := remoteConfig()
	cfg.FaceDetector = config.DetectorPigo
	cfg.FaceDetectorURL = ""

	_, err := NewContainer(cfg)
	assert.NoError(t, err, "the bundled cascade serves when no path is configured")
}

func TestNewContainer_Errors(t *testing.T) {
	_, err := NewContainer(nil)
	assert.Error(t, err)

	cfg := remoteConfig()
	cfg.FaceDetector = config.DetectorPigo
	cfg.FaceCascadePath = "testdata/does-not-exist"
	_, err = NewContainer(cfg)
	assert.ErrorContains(t, err, "failed to create face detector")
}
