package analyzer

import (
	"context"
	"image"

	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
)

// MetricsCalculator handles the raw image statistics behind the scorers
type MetricsCalculator interface {
	LaplacianVariance(gray *image.Gray) float64
	HueSaturationDispersion(img image.Image) float64
}

// ImageScorer maps a decoded image to one artifact score
type ImageScorer interface {
	Score(img *decoder.DecodedImage) ArtifactScore
}

// DetectionScorer maps the detected faces to one artifact score. It is only
// invoked with at least one detection.
type DetectionScorer interface {
	Score(detections []face.Detection) ArtifactScore
}

// ArtifactAnalyzer turns an image and its faces into a final score
type ArtifactAnalyzer interface {
	Analyze(ctx context.Context, img *decoder.DecodedImage, detections []face.Detection) (Report, error)
}
