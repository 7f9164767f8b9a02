// Package explain turns a deepfake score into a tiered, human-readable
// explanation. Template text is always available; an optional generative
// enhancer may replace it when reachable.
package explain

import (
	"fmt"
	"strings"

	"github.com/anime-shed/deepfake-inspector-go/internal/face"
)

// Tier is the severity band selected by score
type Tier string

const (
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
)

const (
	highTierFloor     = 70
	moderateTierFloor = 40
	// Scores above this add the boundary and lighting factors
	severeScore = 80
	// A top detection below this confidence adds the proportions factor
	irregularFeatureConfidence = 0.8
)

const (
	factorBoundaries = "unnatural face boundaries with blending artifacts"
	factorLighting   = "inconsistent lighting between face and background"
	factorFeatures   = "irregular facial features inconsistent with natural proportions"
	factorBlur       = "suspicious blur patterns around jaw and hairline"
)

// TierFor selects the tier; both bounds are strict
func TierFor(score int) Tier {
	switch {
	case score > highTierFloor:
		return TierHigh
	case score > moderateTierFloor:
		return TierModerate
	default:
		return TierLow
	}
}

// Template renders the deterministic explanation for score
func Template(score int, detections []face.Detection) string {
	switch TierFor(score) {
	case TierHigh:
		return highTemplate(score, detections)
	case TierModerate:
		return fmt.Sprintf("The image shows moderate signs of manipulation (%d%% probability). "+
			"Some facial regions appear edited, particularly around the mouth and eyes. "+
			"However, these could also be due to compression or lighting conditions.", score)
	default:
		return fmt.Sprintf("The image appears to be authentic (%d%% deepfake probability). "+
			"No significant signs of manipulation were detected in the facial regions.", score)
	}
}

func highTemplate(score int, detections []face.Detection) string {
	base := fmt.Sprintf("The image is highly likely to be a deepfake (%d%% probability).", score)
	if len(detections) == 0 {
		return base
	}
	return base + " The AI detected several concerning indicators: " + strings.Join(Factors(score, detections), ", ") + "."
}

// Factors lists the high-tier suspicion factors in presentation order
func Factors(score int, detections []face.Detection) []string {
	factors := make([]string, 0, 4)
	if score > severeScore {
		factors = append(factors, factorBoundaries, factorLighting)
	}
	if len(detections) > 0 && detections[0].Confidence < irregularFeatureConfidence {
		factors = append(factors, factorFeatures)
	}
	return append(factors, factorBlur)
}
