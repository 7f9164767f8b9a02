package explain

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/deepfake-inspector-go/internal/config"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
	"github.com/anime-shed/deepfake-inspector-go/internal/logger"
)

// Source records which path produced an explanation
type Source string

const (
	SourceTemplate Source = "template"
	SourceEnhanced Source = "enhanced"
)

// Explanation is the generator's output
type Explanation struct {
	Text   string
	Tier   Tier
	Source Source
}

// Input describes one scored image
type Input struct {
	Score      int
	Detections []face.Detection
	Artifacts  []string
}

// Generator explains scores. A nil enhancer means templates only.
type Generator struct {
	enhancer Enhancer
	timeout  time.Duration
}

func NewGenerator(enhancer Enhancer, timeout time.Duration) *Generator {
	if timeout <= 0 || timeout > config.MaxExplanationTimeout {
		timeout = config.MaxExplanationTimeout
	}
	return &Generator{enhancer: enhancer, timeout: timeout}
}

// NewGeneratorFromConfig enables the OpenAI enhancer when a key is present
func NewGeneratorFromConfig(cfg *config.Config) *Generator {
	enhancer, err := NewOpenAIEnhancer(cfg.OpenAI)
	if err != nil {
		logger.WithError(err).Info("Explanation enhancement disabled, using templates")
		return NewGenerator(nil, cfg.ExplanationTimeout)
	}
	return NewGenerator(enhancer, cfg.ExplanationTimeout)
}

// Explain never fails. Enhancer errors, timeouts and empty answers fall
// back to the template for the same tier.
func (g *Generator) Explain(ctx context.Context, in Input) Explanation {
	tier := TierFor(in.Score)

	if g.enhancer != nil {
		text, err := g.enhance(ctx, in)
		if err == nil {
			return Explanation{Text: text, Tier: tier, Source: SourceEnhanced}
		}
		logger.WithFields(logrus.Fields{
			"score": in.Score,
			"tier":  tier,
		}).WithError(err).Debug("Explanation enhancement failed, using template")
	}

	return Explanation{Text: Template(in.Score, in.Detections), Tier: tier, Source: SourceTemplate}
}

func (g *Generator) enhance(ctx context.Context, in Input) (string, error) {
	// The deadline lives on a child context so it cannot end the caller's
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.enhancer.Enhance(ctx, Request{Score: in.Score, Artifacts: in.Artifacts})
}
