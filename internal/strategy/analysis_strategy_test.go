package strategy

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
	"github.com/anime-shed/deepfake-inspector-go/internal/explain"
	"github.com/anime-shed/deepfake-inspector-go/pkg/models"
)

type namedStrategy struct{ name string }

func (n namedStrategy) Analyze(ctx context.Context, ref models.MediaReference) Outcome {
	return Outcome{Result: models.NewNeutralResult(n.name), Trace: []State{StateDone}}
}

func (n namedStrategy) GetStrategyName() string { return n.name }

func TestAnalysisContext_Select(t *testing.T) {
	c := NewAnalysisContext(namedStrategy{name: "image"})

	tests := []struct {
		mediaType models.MediaType
		expected  string
	}{
		{models.MediaTypeImage, "image"},
		{models.MediaTypeVideo, "video_stub"},
		{"audio", "unsupported_media"},
		{"", "unsupported_media"},
		{"IMAGE", "unsupported_media"},
	}

	for _, tt := range tests {
		if got := c.Select(tt.mediaType).GetStrategyName(); got != tt.expected {
			t.Errorf("Select(%q) = %s, expected %s", tt.mediaType, got, tt.expected)
		}
	}

	c.SetStrategy("audio", namedStrategy{name: "audio"})
	if got := c.Select("audio").GetStrategyName(); got != "audio" {
		t.Errorf("Expected registered strategy, got %s", got)
	}
}

func TestVideoStubStrategy(t *testing.T) {
	c := NewAnalysisContext(namedStrategy{name: "image"})
	out := c.ExecuteAnalysis(context.Background(), models.MediaReference{URL: "https://example.com/v.mp4", DeclaredType: models.MediaTypeVideo})

	if out.Result.DeepfakeScore != 45 {
		t.Errorf("Expected score 45, got %d", out.Result.DeepfakeScore)
	}
	if out.Result.Explanation != VideoStubExplanation {
		t.Errorf("Unexpected explanation: %s", out.Result.Explanation)
	}
	if out.Result.SuspiciousRegions == nil || len(out.Result.SuspiciousRegions) != 0 {
		t.Errorf("Expected empty non-nil regions, got %v", out.Result.SuspiciousRegions)
	}
	if out.Tier != explain.TierModerate {
		t.Errorf("Expected moderate tier, got %s", out.Tier)
	}
}

func TestUnsupportedMediaStrategy(t *testing.T) {
	out := NewUnsupportedMediaStrategy().Analyze(context.Background(), models.MediaReference{URL: "x", DeclaredType: "gif-animation"})

	if out.Result.DeepfakeScore != 0 || out.Result.Explanation != UnsupportedExplanation {
		t.Errorf("Unexpected result: %+v", out.Result)
	}
	if len(out.Trace) != 1 || out.Trace[0] != StateDone {
		t.Errorf("Expected trace [done], got %v", out.Trace)
	}
	if _, failed := out.FailedAt(); failed {
		t.Error("Unsupported media is not a failure")
	}
	if !apperrors.IsType(out.Err, apperrors.ErrorTypeUnsupportedMedia) {
		t.Errorf("Expected unsupported media error, got %v", out.Err)
	}
	if !strings.Contains(out.Err.Error(), `"gif-animation"`) {
		t.Errorf("Expected the declared type in the error, got %v", out.Err)
	}
}

func TestOutcome_FailedAt(t *testing.T) {
	out := Outcome{Trace: []State{StateFetching, StateDecoding, StateFailed, StateDone}}
	state, failed := out.FailedAt()
	if !failed || state != StateDecoding {
		t.Errorf("Expected failure at decoding, got %s %v", state, failed)
	}
}
