package analyzer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
)

// coreAnalyzer implements ArtifactAnalyzer and orchestrates the scorers
type coreAnalyzer struct {
	blur     ImageScorer
	color    ImageScorer
	landmark DetectionScorer
}

// NewArtifactAnalyzer creates an analyzer with the standard scorers
func NewArtifactAnalyzer() ArtifactAnalyzer {
	calc := NewMetricsCalculator()
	return &coreAnalyzer{
		blur:     NewBlurScorer(calc),
		color:    NewColorScorer(calc),
		landmark: LandmarkScorer{},
	}
}

// NewArtifactAnalyzerWith wires custom scorers, mainly for tests
func NewArtifactAnalyzerWith(blur, color ImageScorer, landmark DetectionScorer) ArtifactAnalyzer {
	return &coreAnalyzer{blur: blur, color: color, landmark: landmark}
}

// Analyze runs no scorer when there are no faces. Otherwise blur and color
// run concurrently; the report lists scores in blur, color, landmark order.
func (ca *coreAnalyzer) Analyze(ctx context.Context, img *decoder.DecodedImage, detections []face.Detection) (Report, error) {
	if len(detections) == 0 {
		return Report{Scores: []ArtifactScore{}}, nil
	}

	var blur, color ArtifactScore
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		blur = ca.blur.Score(img)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		color = ca.color.Score(img)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	scores := []ArtifactScore{blur, color, ca.landmark.Score(detections)}
	return Report{
		DeepfakeScore: Aggregate(len(detections), scores),
		Scores:        scores,
		FaceCount:     len(detections),
	}, nil
}
