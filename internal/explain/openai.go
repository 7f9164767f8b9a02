package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

const (
	defaultModel        = "gpt-4"
	enhancerMaxTokens   = 150
	enhancerTemperature = 0.7
)

const promptTemplate = `A deepfake detection model analyzed an image and found a %d%% probability of being fake.
The following artifacts were detected: %s

Generate a clear, user-friendly explanation in 2-3 sentences that:
1. States the deepfake probability
2. Explains what specific visual signs made it suspicious
3. Uses simple language that non-technical users can understand`

// Request is what the enhancer is told about one analysis
type Request struct {
	Score     int
	Artifacts []string
}

// Enhancer produces free-text explanations from an external service
type Enhancer interface {
	Enhance(ctx context.Context, req Request) (string, error)
}

// OpenAIEnhancer calls a chat completion endpoint
type OpenAIEnhancer struct {
	client *openai.Client
	model  string
}

// NewOpenAIEnhancer fails with an enhancement-unavailable error when no
// credential is configured
func NewOpenAIEnhancer(cfg config.OpenAIConfig) (*OpenAIEnhancer, error) {
	if !cfg.Enabled() {
		return nil, apperrors.NewEnhancementUnavailableError("missing OpenAI API key", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAIEnhancer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

func (e *OpenAIEnhancer) Enhance(ctx context.Context, req Request) (string, error) {
	artifacts := "none"
	if len(req.Artifacts) > 0 {
		artifacts = strings.Join(req.Artifacts, ", ")
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, req.Score, artifacts)},
		},
		MaxTokens:   enhancerMaxTokens,
		Temperature: enhancerTemperature,
	})
	if err != nil {
		return "", apperrors.NewEnhancementUnavailableError("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewEnhancementUnavailableError("chat completion returned no choices", nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", apperrors.NewEnhancementUnavailableError("chat completion returned empty content", nil)
	}
	return text, nil
}
