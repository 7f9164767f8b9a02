package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
	"github.com/anime-shed/deepfake-inspector-go/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		MediaFetchTimeout:  time.Second,
		ExplanationTimeout: time.Second,
		FaceDetector:       config.DetectorPigo,
		FaceCascadePath:    "testdata/missing-facefinder",
		FaceMinConfidence:  0.5,
	}
}

func TestCreateDetector(t *testing.T) {
	cfg := testConfig()
	cfg.FaceDetectorURL = "http://127.0.0.1:9/detect"
	f := NewDetectorFactory(cfg)

	detector, err := f.CreateDetector(RemoteDetector)
	require.NoError(t, err)
	assert.IsType(t, &face.ScopedDetector{}, detector)

	_, err = f.CreateDetector(PigoDetector)
	assert.Error(t, err, "a missing cascade file must fail construction")

	_, err = f.CreateDetector("haar")
	assert.EqualError(t, err, "unsupported detector type: haar")
}

func TestCreateDetector_BundledCascade(t *testing.T) {
	cfg := testConfig()
	cfg.FaceCascadePath = ""

	detector, err := NewDetectorFactory(cfg).CreateDetector(PigoDetector)
	require.NoError(t, err)
	assert.IsType(t, &face.ScopedDetector{}, detector)
}

func TestCreateFetcher_AppliesFetchTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.MediaFetchTimeout = 3 * time.Second

	fetcher, err := NewStorageFactory(cfg).CreateFetcher()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, fetcher.(*storage.Router).Timeout)
}

func TestComponentFactory_DetectorFollowsConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FaceDetector = config.DetectorRemote
	cfg.FaceDetectorURL = "http://127.0.0.1:9/detect"

	detector, err := NewComponentFactory(cfg).Detector()
	require.NoError(t, err)
	assert.NotNil(t, detector)
}

func TestCreateFetcher_OptionalBackends(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*config.Config)
		wantAzure bool
		wantS3    bool
	}{
		{"http only", func(*config.Config) {}, false, false},
		{"azure", func(c *config.Config) {
			c.Azure = config.AzureConfig{AccountName: "account", AccountKey: "dGVzdGtleQ=="}
		}, true, false},
		{"s3", func(c *config.Config) {
			c.S3 = config.S3Config{Endpoint: "localhost:9000", AccessKey: "key", SecretKey: "secret"}
		}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.configure(cfg)

			fetcher, err := NewStorageFactory(cfg).CreateFetcher()
			require.NoError(t, err)

			router, ok := fetcher.(*storage.Router)
			require.True(t, ok)
			assert.NotNil(t, router.HTTP)
			assert.Equal(t, tt.wantAzure, router.Azure != nil)
			assert.Equal(t, tt.wantS3, router.S3 != nil)
		})
	}
}

func TestCreateFetcher_UnconfiguredS3IsFetchError(t *testing.T) {
	fetcher, err := NewStorageFactory(testConfig()).CreateFetcher()
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "s3://bucket/key.jpg")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFetch))
}

func TestExplainer_TemplateOnlyWithoutKey(t *testing.T) {
	assert.NotNil(t, NewComponentFactory(testConfig()).Explainer())
}
