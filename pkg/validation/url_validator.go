package validation

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
	"github.com/anime-shed/deepfake-inspector-go/pkg/models"
)

// DefaultMaxURLLength caps the url field of an analysis request
const DefaultMaxURLLength = 2048

// URLValidator rejects requests whose url is missing or unparseable. Scheme
// and reachability problems are left to the fetch stage, which reports them
// as a scored failure rather than a client error.
type URLValidator struct {
	maxLength int
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{maxLength: DefaultMaxURLLength}
}

// NewURLValidatorWithMaxLength creates a URL validator with a custom length cap
func NewURLValidatorWithMaxLength(maxLength int) *URLValidator {
	if maxLength <= 0 {
		maxLength = DefaultMaxURLLength
	}
	return &URLValidator{maxLength: maxLength}
}

// ValidateRequest checks the top-level request shape and trims the url in place
func (v *URLValidator) ValidateRequest(req *models.AnalysisRequest) error {
	req.URL = strings.TrimSpace(req.URL)
	return v.ValidateMediaURL(req.URL)
}

// ValidateMediaURL validates a media reference URL
func (v *URLValidator) ValidateMediaURL(mediaURL string) error {
	if strings.TrimSpace(mediaURL) == "" {
		return apperrors.NewValidationError("url is required", nil)
	}

	if len(mediaURL) > v.maxLength {
		return apperrors.NewValidationError(fmt.Sprintf("url exceeds %d characters", v.maxLength), nil)
	}

	if _, err := url.Parse(mediaURL); err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	return nil
}
