package analyzer

// ArtifactName identifies one of the artifact families
type ArtifactName string

const (
	ArtifactBlur     ArtifactName = "blur"
	ArtifactColor    ArtifactName = "color"
	ArtifactLandmark ArtifactName = "landmark"
)

// Aggregation weights; they sum to 1.0
const (
	BlurWeight     = 0.30
	ColorWeight    = 0.20
	LandmarkWeight = 0.50
)

// ArtifactScore is one scorer's normalised output. Metric is the raw value
// the scorer thresholded, kept for logging.
type ArtifactScore struct {
	Name   ArtifactName `json:"name"`
	Value  float64      `json:"value"`
	Weight float64      `json:"weight"`
	Metric float64      `json:"metric"`
}

// Report is the outcome of scoring one image
type Report struct {
	DeepfakeScore int             `json:"deepfake_score"`
	Scores        []ArtifactScore `json:"scores"`
	FaceCount     int             `json:"face_count"`
}

// ArtifactNames lists the families that contributed to the report
func (r Report) ArtifactNames() []string {
	names := make([]string, 0, len(r.Scores))
	for _, s := range r.Scores {
		names = append(names, string(s.Name))
	}
	return names
}
