package models

// AnalysisRequest is the JSON body accepted by POST /analyze
type AnalysisRequest struct {
	URL  string `json:"url" binding:"required"`
	Type string `json:"type"`
}

// Reference converts the request into the pipeline's input
func (r AnalysisRequest) Reference() MediaReference {
	return MediaReference{
		URL:          r.URL,
		DeclaredType: MediaType(r.Type),
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
