package analyzer

import (
	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
)

// Sharpness thresholds on the Laplacian variance
const (
	blurLowSharpness  = 100.0
	blurHighSharpness = 200.0
)

// colorDispersionThreshold splits peaked from spread histograms
const colorDispersionThreshold = 1000.0

// Landmark thresholds on the first detection's confidence
const (
	landmarkLowConfidence  = 0.70
	landmarkHighConfidence = 0.85
)

// BlurScore maps a sharpness metric to a score. A sharp image still scores
// above zero.
func BlurScore(sharpness float64) float64 {
	switch {
	case sharpness < blurLowSharpness:
		return 0.8
	case sharpness < blurHighSharpness:
		return 0.5
	default:
		return 0.2
	}
}

// ColorScore maps histogram dispersion to a score
func ColorScore(dispersion float64) float64 {
	if dispersion > colorDispersionThreshold {
		return 0.7
	}
	return 0.3
}

// LandmarkScore maps detector confidence to a score. Low confidence on a
// located face is the suspicious case.
func LandmarkScore(confidence float64) float64 {
	switch {
	case confidence < landmarkLowConfidence:
		return 0.8
	case confidence < landmarkHighConfidence:
		return 0.5
	default:
		return 0.2
	}
}

// BlurScorer scores the sharpness of the grayscale image
type BlurScorer struct {
	calc MetricsCalculator
}

func NewBlurScorer(calc MetricsCalculator) *BlurScorer {
	return &BlurScorer{calc: calc}
}

func (s *BlurScorer) Score(img *decoder.DecodedImage) ArtifactScore {
	sharpness := s.calc.LaplacianVariance(ToGray(img.Image))
	return ArtifactScore{Name: ArtifactBlur, Value: BlurScore(sharpness), Weight: BlurWeight, Metric: sharpness}
}

// ColorScorer scores the hue/saturation distribution
type ColorScorer struct {
	calc MetricsCalculator
}

func NewColorScorer(calc MetricsCalculator) *ColorScorer {
	return &ColorScorer{calc: calc}
}

func (s *ColorScorer) Score(img *decoder.DecodedImage) ArtifactScore {
	dispersion := s.calc.HueSaturationDispersion(img.Image)
	return ArtifactScore{Name: ArtifactColor, Value: ColorScore(dispersion), Weight: ColorWeight, Metric: dispersion}
}

// LandmarkScorer looks only at the first detection in detector order
type LandmarkScorer struct{}

func (LandmarkScorer) Score(detections []face.Detection) ArtifactScore {
	confidence := detections[0].Confidence
	return ArtifactScore{Name: ArtifactLandmark, Value: LandmarkScore(confidence), Weight: LandmarkWeight, Metric: confidence}
}
