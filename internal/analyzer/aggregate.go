package analyzer

import "math"

// Aggregate combines artifact scores into an integer in [0,100]. With no
// faces the result is 0 whatever the scores say.
func Aggregate(faceCount int, scores []ArtifactScore) int {
	if faceCount == 0 {
		return 0
	}

	var raw float64
	for _, s := range scores {
		raw += s.Weight * s.Value
	}

	score := int(math.Round(100 * raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
