package explain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
)

func faces(confidences ...float64) []face.Detection {
	out := make([]face.Detection, 0, len(confidences))
	for _, c := range confidences {
		out = append(out, face.Detection{Box: face.BoundingBox{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.5}, Confidence: c})
	}
	return out
}

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		tier  Tier
	}{
		{0, TierLow},
		{40, TierLow},
		{41, TierModerate},
		{70, TierModerate},
		{71, TierHigh},
		{100, TierHigh},
	}

	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.tier {
			t.Errorf("TierFor(%d) = %s, expected %s", tt.score, got, tt.tier)
		}
	}
}

func TestTemplate_Low(t *testing.T) {
	text := Template(22, faces(0.9))
	assert.Equal(t, "The image appears to be authentic (22% deepfake probability). "+
		"No significant signs of manipulation were detected in the facial regions.", text)
}

func TestTemplate_Moderate(t *testing.T) {
	text := Template(55, faces(0.75))
	assert.Contains(t, text, "moderate signs of manipulation (55% probability)")
	assert.Contains(t, text, "mouth and eyes")
	assert.Contains(t, text, "compression or lighting conditions")
}

func TestTemplate_HighFactors(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		confidence float64
		expected   []string
		absent     []string
	}{
		{
			name:       "severe with low confidence face",
			score:      85,
			confidence: 0.6,
			expected:   []string{factorBoundaries, factorLighting, factorFeatures, factorBlur},
		},
		{
			name:       "severe with confident face",
			score:      85,
			confidence: 0.9,
			expected:   []string{factorBoundaries, factorLighting, factorBlur},
			absent:     []string{factorFeatures},
		},
		{
			name:       "high with low confidence face",
			score:      75,
			confidence: 0.6,
			expected:   []string{factorFeatures, factorBlur},
			absent:     []string{factorBoundaries, factorLighting},
		},
		{
			name:       "exactly 80 is not severe",
			score:      80,
			confidence: 0.8,
			expected:   []string{factorBlur},
			absent:     []string{factorBoundaries, factorLighting, factorFeatures},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Factors(tt.score, faces(tt.confidence)))

			text := Template(tt.score, faces(tt.confidence))
			assert.True(t, strings.HasPrefix(text, "The image is highly likely to be a deepfake"))
			for _, f := range tt.absent {
				assert.NotContains(t, text, f)
			}
		})
	}
}

func TestTemplate_HighUsesFirstDetectionOnly(t *testing.T) {
	factors := Factors(90, faces(0.95, 0.1))
	assert.NotContains(t, factors, factorFeatures)
}

func TestNewOpenAIEnhancer_MissingKey(t *testing.T) {
	_, err := NewOpenAIEnhancer(config.OpenAIConfig{Model: "gpt-4"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEnhancementUnavailable))
}

func TestNewGeneratorFromConfig_NoKeyUsesTemplates(t *testing.T) {
	g := NewGeneratorFromConfig(&config.Config{ExplanationTimeout: time.Second})
	out := g.Explain(context.Background(), Input{Score: 30, Detections: faces(0.9)})
	assert.Equal(t, SourceTemplate, out.Source)
	assert.Equal(t, TierLow, out.Tier)
}

func TestNewGenerator_ClampsTimeout(t *testing.T) {
	assert.Equal(t, config.MaxExplanationTimeout, NewGenerator(nil, time.Minute).timeout)
	assert.Equal(t, config.MaxExplanationTimeout, NewGenerator(nil, 0).timeout)
	assert.Equal(t, time.Second, NewGenerator(nil, time.Second).timeout)
}

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *OpenAIEnhancer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	enhancer, err := NewOpenAIEnhancer(config.OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	return enhancer
}

func TestGenerator_EnhancerFailureFallsBack(t *testing.T) {
	enhancer := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	})

	g := NewGenerator(enhancer, time.Second)
	out := g.Explain(context.Background(), Input{Score: 85, Detections: faces(0.6), Artifacts: []string{"blur", "color", "landmark"}})

	assert.Equal(t, SourceTemplate, out.Source)
	assert.Equal(t, TierHigh, out.Tier)
	assert.Equal(t, "The image is highly likely to be a deepfake (85% probability). "+
		"The AI detected several concerning indicators: "+
		"unnatural face boundaries with blending artifacts, "+
		"inconsistent lighting between face and background, "+
		"irregular facial features inconsistent with natural proportions, "+
		"suspicious blur patterns around jaw and hairline.", out.Text)
}

func TestGenerator_EnhancedText(t *testing.T) {
	var captured struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	enhancer := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  This image is likely fake (85%).  "},"finish_reason":"stop"}]}`))
	})

	g := NewGenerator(enhancer, time.Second)
	out := g.Explain(context.Background(), Input{Score: 85, Detections: faces(0.6), Artifacts: []string{"blur", "landmark"}})

	assert.Equal(t, SourceEnhanced, out.Source)
	assert.Equal(t, "This image is likely fake (85%).", out.Text)
	assert.Equal(t, "gpt-4", captured.Model)
	assert.Equal(t, 150, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-6)
	require.Len(t, captured.Messages, 1)
	assert.Contains(t, captured.Messages[0].Content, "85% probability")
	assert.Contains(t, captured.Messages[0].Content, "blur, landmark")
}

func TestGenerator_EmptyChoicesFallsBack(t *testing.T) {
	enhancer := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`))
	})

	out := NewGenerator(enhancer, time.Second).Explain(context.Background(), Input{Score: 50, Detections: faces(0.8)})
	assert.Equal(t, SourceTemplate, out.Source)
	assert.Equal(t, Template(50, faces(0.8)), out.Text)
}

type blockingEnhancer struct{}

func (blockingEnhancer) Enhance(ctx context.Context, req Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type failingEnhancer struct{}

func (failingEnhancer) Enhance(ctx context.Context, req Request) (string, error) {
	return "", errors.New("no route to host")
}

func TestGenerator_TimeoutDoesNotCancelCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := NewGenerator(blockingEnhancer{}, 20*time.Millisecond)

	start := time.Now()
	out := g.Explain(ctx, Input{Score: 72, Detections: faces(0.9)})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, SourceTemplate, out.Source)
	assert.Equal(t, Template(72, faces(0.9)), out.Text)
	assert.NoError(t, ctx.Err(), "caller context must survive the enhancer deadline")
}

func TestGenerator_DeterministicFallback(t *testing.T) {
	g := NewGenerator(failingEnhancer{}, time.Second)
	in := Input{Score: 64, Detections: faces(0.7)}

	first := g.Explain(context.Background(), in)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, g.Explain(context.Background(), in))
	}
	assert.NotEmpty(t, first.Text)
}
