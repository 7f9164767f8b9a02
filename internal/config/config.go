package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Detector backends accepted by FACE_DETECTOR
const (
	DetectorPigo   = "pigo"
	DetectorRemote = "remote"
)

// MaxExplanationTimeout bounds the generative explanation call
const MaxExplanationTimeout = 5 * time.Second

type Config struct {
	Host                  string
	Port                  string
	LogLevel              string
	RequestTimeout        time.Duration
	MediaFetchTimeout     time.Duration
	ExplanationTimeout    time.Duration
	MaxRequestBodySize    int64
	MaxConcurrentAnalyses int

	FaceDetector      string
	FaceCascadePath   string
	FaceDetectorURL   string
	FaceMinConfidence float64

	OpenAI OpenAIConfig
	Azure  AzureConfig
	S3     S3Config
}

// OpenAIConfig holds the optional text-generation credential. An empty APIKey
// disables the enhancement path.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled reports whether a credential is present
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

type AzureConfig struct {
	AccountName string
	AccountKey  string
}

// Enabled reports whether blob credentials are configured
func (c AzureConfig) Enabled() bool {
	return c.AccountName != "" && c.AccountKey != ""
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether an S3-compatible endpoint is configured
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                  getEnvOrDefault("PORT", "8080"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout:        parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MediaFetchTimeout:     parseDurationOrDefault("MEDIA_FETCH_TIMEOUT", 10*time.Second),
		ExplanationTimeout:    parseDurationOrDefault("EXPLANATION_TIMEOUT", MaxExplanationTimeout),
		MaxRequestBodySize:    parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1024*1024), // 1MB
		MaxConcurrentAnalyses: int(parseIntOrDefault("MAX_CONCURRENT_ANALYSES", int64(runtime.NumCPU()))),

		FaceDetector:      strings.ToLower(getEnvOrDefault("FACE_DETECTOR", DetectorPigo)),
		FaceCascadePath:   strings.TrimSpace(os.Getenv("FACE_CASCADE_PATH")),
		FaceDetectorURL:   os.Getenv("FACE_DETECTOR_URL"),
		FaceMinConfidence: parseFloatOrDefault("FACE_MIN_CONFIDENCE", 0.5),

		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Azure: AzureConfig{
			AccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
		},
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			UseSSL:    getEnvOrDefault("S3_USE_SSL", "true") == "true",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxConcurrentAnalyses <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_ANALYSES must be > 0 (got %d)", c.MaxConcurrentAnalyses)
	}
	if c.RequestTimeout <= 0 || c.MediaFetchTimeout <= 0 || c.ExplanationTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, explanation=%s)",
			c.RequestTimeout, c.MediaFetchTimeout, c.ExplanationTimeout)
	}
	if c.ExplanationTimeout > MaxExplanationTimeout {
		return fmt.Errorf("EXPLANATION_TIMEOUT must be <= %s (got %s)", MaxExplanationTimeout, c.ExplanationTimeout)
	}
	if c.FaceMinConfidence < 0 || c.FaceMinConfidence > 1 {
		return fmt.Errorf("FACE_MIN_CONFIDENCE must be within [0,1] (got %v)", c.FaceMinConfidence)
	}
	switch c.FaceDetector {
	case DetectorPigo:
		// An empty FACE_CASCADE_PATH selects the bundled cascade
	case DetectorRemote:
		if strings.TrimSpace(c.FaceDetectorURL) == "" {
			return fmt.Errorf("FACE_DETECTOR_URL is required for the remote detector")
		}
	default:
		return fmt.Errorf("unsupported FACE_DETECTOR: %q", c.FaceDetector)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
