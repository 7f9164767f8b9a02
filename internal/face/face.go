// Package face locates faces in decoded images.
//
// Detector sessions are scoped to a single call: Detect opens a session,
// runs it, and closes it on every exit path. Nothing is carried between
// calls.
package face

import (
	"context"
	"fmt"

	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

// DefaultMinConfidence drops detections the detector is unsure of
const DefaultMinConfidence = 0.5

// BoundingBox is relative to the image; every field lies in [0,1]
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one located face
type Detection struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// Detector returns faces in the backend's natural output order, which is not
// guaranteed to be ranked. An empty slice is a valid result.
type Detector interface {
	Detect(ctx context.Context, img *decoder.DecodedImage) ([]Detection, error)
}

// Session is a detector handle valid for one call
type Session interface {
	Process(ctx context.Context, img *decoder.DecodedImage) ([]Detection, error)
	Close() error
}

// SessionFactory acquires a fresh Session
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// ScopedDetector implements Detector on top of a SessionFactory
type ScopedDetector struct {
	factory       SessionFactory
	minConfidence float64
}

func NewScopedDetector(factory SessionFactory, minConfidence float64) *ScopedDetector {
	if minConfidence < 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}
	return &ScopedDetector{factory: factory, minConfidence: minConfidence}
}

func (d *ScopedDetector) Detect(ctx context.Context, img *decoder.DecodedImage) (detections []Detection, err error) {
	if img == nil || img.Image == nil {
		return nil, apperrors.NewDetectionError("no image to scan", nil)
	}

	session, err := d.factory.Open(ctx)
	if err != nil {
		return nil, apperrors.NewDetectionError("failed to open detector session", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = apperrors.NewDetectionError("failed to release detector session", closeErr)
			detections = nil
		}
	}()

	raw, err := session.Process(ctx, img)
	if err != nil {
		return nil, apperrors.NewDetectionError("face detection failed", err)
	}

	detections = make([]Detection, 0, len(raw))
	for _, det := range raw {
		if det.Confidence < d.minConfidence {
			continue
		}
		det.Box = det.Box.clamped()
		det.Confidence = clamp01(det.Confidence)
		detections = append(detections, det)
	}
	return detections, nil
}

// clamped clips the box to the unit square
func (b BoundingBox) clamped() BoundingBox {
	x0, y0 := clamp01(b.X), clamp01(b.Y)
	x1, y1 := clamp01(b.X+b.Width), clamp01(b.Y+b.Height)
	return BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%.3f,%.3f %.3fx%.3f)", b.X, b.Y, b.Width, b.Height)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
