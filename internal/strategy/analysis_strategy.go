package strategy

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
	"github.com/anime-shed/deepfake-inspector-go/internal/explain"
	"github.com/anime-shed/deepfake-inspector-go/pkg/models"
)

// State is a pipeline stage. Failed is internal; callers only ever see a
// run that ended in Done.
type State string

const (
	StateFetching   State = "fetching"
	StateDecoding   State = "decoding"
	StateDetecting  State = "detecting"
	StateScoring    State = "scoring"
	StateExplaining State = "explaining"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Outcome is what a strategy produced for one media reference
type Outcome struct {
	Result models.AnalysisResult
	// Trace lists the states visited in order, ending in Done
	Trace []State
	// Err is the masked stage failure, or the unsupported-media error for
	// types with no analysis path; nil when the run succeeded
	Err               error
	Tier              explain.Tier
	ExplanationSource explain.Source
}

// FailedAt reports the state that failed, if any
func (o Outcome) FailedAt() (State, bool) {
	for i, s := range o.Trace {
		if s == StateFailed && i > 0 {
			return o.Trace[i-1], true
		}
	}
	return "", false
}

// AnalysisStrategy handles one family of declared media types
type AnalysisStrategy interface {
	Analyze(ctx context.Context, ref models.MediaReference) Outcome
	GetStrategyName() string
}

// Placeholder result for videos; frames are not analysed
const (
	VideoStubScore       = 45
	VideoStubExplanation = "Video analysis: The video shows moderate signs of manipulation (45% probability). " +
		"Some frames contain inconsistent facial movements."
)

// UnsupportedExplanation is returned for any type other than image or video
const UnsupportedExplanation = "Unsupported media type"

// VideoStubStrategy returns a fixed placeholder without fetching the video
type VideoStubStrategy struct{}

// NewVideoStubStrategy creates a new video stub strategy
func NewVideoStubStrategy() AnalysisStrategy {
	return VideoStubStrategy{}
}

// Analyze returns the fixed video result
func (VideoStubStrategy) Analyze(ctx context.Context, ref models.MediaReference) Outcome {
	return Outcome{
		Result: models.AnalysisResult{
			DeepfakeScore:     VideoStubScore,
			Explanation:       VideoStubExplanation,
			SuspiciousRegions: []models.SuspiciousRegion{},
		},
		Trace:             []State{StateDone},
		Tier:              explain.TierFor(VideoStubScore),
		ExplanationSource: explain.SourceTemplate,
	}
}

// GetStrategyName returns the strategy name
func (VideoStubStrategy) GetStrategyName() string {
	return "video_stub"
}

// UnsupportedMediaStrategy returns the neutral result
type UnsupportedMediaStrategy struct{}

// NewUnsupportedMediaStrategy creates a new unsupported media strategy
func NewUnsupportedMediaStrategy() AnalysisStrategy {
	return UnsupportedMediaStrategy{}
}

// Analyze returns a zero score with the unsupported explanation. The trace
// holds no Failed state; Err records what was declared.
func (UnsupportedMediaStrategy) Analyze(ctx context.Context, ref models.MediaReference) Outcome {
	return Outcome{
		Result:            models.NewNeutralResult(UnsupportedExplanation),
		Trace:             []State{StateDone},
		Err:               apperrors.NewUnsupportedMediaError(fmt.Sprintf("declared type %q has no analysis path", ref.DeclaredType), nil),
		Tier:              explain.TierFor(0),
		ExplanationSource: explain.SourceTemplate,
	}
}

// GetStrategyName returns the strategy name
func (UnsupportedMediaStrategy) GetStrategyName() string {
	return "unsupported_media"
}

// AnalysisContext picks a strategy by declared media type
type AnalysisContext struct {
	mu         sync.RWMutex
	strategies map[models.MediaType]AnalysisStrategy
	fallback   AnalysisStrategy
}

// NewAnalysisContext registers image handling plus the video stub and the
// unsupported fallback
func NewAnalysisContext(image AnalysisStrategy) *AnalysisContext {
	return &AnalysisContext{
		strategies: map[models.MediaType]AnalysisStrategy{
			models.MediaTypeImage: image,
			models.MediaTypeVideo: NewVideoStubStrategy(),
		},
		fallback: NewUnsupportedMediaStrategy(),
	}
}

// SetStrategy replaces the strategy for a media type
func (c *AnalysisContext) SetStrategy(mediaType models.MediaType, strategy AnalysisStrategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategies[mediaType] = strategy
}

// Select returns the strategy for mediaType, or the unsupported fallback
func (c *AnalysisContext) Select(mediaType models.MediaType) AnalysisStrategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.strategies[mediaType]; ok && s != nil {
		return s
	}
	return c.fallback
}

// ExecuteAnalysis dispatches ref to its strategy
func (c *AnalysisContext) ExecuteAnalysis(ctx context.Context, ref models.MediaReference) Outcome {
	return c.Select(ref.DeclaredType).Analyze(ctx, ref)
}
