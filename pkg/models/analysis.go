package models

// MediaType is the caller-declared kind of media behind a URL
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaReference identifies the media a caller wants analyzed
type MediaReference struct {
	URL          string    `json:"url"`
	DeclaredType MediaType `json:"type"`
}

// IsSupported reports whether the declared type has an analysis path
func (m MediaReference) IsSupported() bool {
	return m.DeclaredType == MediaTypeImage || m.DeclaredType == MediaTypeVideo
}

// SuspiciousRegion is a face bounding box annotated with its detector confidence.
// Coordinates are relative to the image and lie in [0,1].
type SuspiciousRegion struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the outcome of one pipeline invocation.
// DeepfakeScore is always within [0,100] and Explanation is never empty.
type AnalysisResult struct {
	DeepfakeScore     int                `json:"deepfake_score"`
	Explanation       string             `json:"explanation"`
	SuspiciousRegions []SuspiciousRegion `json:"suspicious_regions"`
}

// NewNeutralResult builds a zero-score result carrying only an explanation
func NewNeutralResult(explanation string) AnalysisResult {
	return AnalysisResult{
		DeepfakeScore:     0,
		Explanation:       explanation,
		SuspiciousRegions: []SuspiciousRegion{},
	}
}
