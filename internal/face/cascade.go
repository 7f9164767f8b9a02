package face

import _ "embed"

// facefinder is pigo's frontal face cascade (MIT, see cascade/LICENSE)
//
//go:embed cascade/facefinder
var facefinder []byte

// DefaultCascade returns the bundled facefinder cascade
func DefaultCascade() []byte {
	return facefinder
}
