package face

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
)

// PigoOptions tune the cascade scan
type PigoOptions struct {
	MinSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	// QualityScale maps pigo's clustered quality q to q/(q+QualityScale).
	// Clear frontal faces cluster to q of a few hundred.
	QualityScale float64
}

func DefaultPigoOptions() PigoOptions {
	return PigoOptions{
		MinSize:      20,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		QualityScale: 100.0,
	}
}

// PigoSessionFactory unpacks the cascade into a new classifier for every
// session, so no classifier outlives a call
type PigoSessionFactory struct {
	cascade []byte
	opts    PigoOptions
}

// LoadPigoCascade reads a facefinder cascade from disk. An empty path selects
// the bundled cascade.
func LoadPigoCascade(path string) ([]byte, error) {
	if path == "" {
		return DefaultCascade(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade %s: %w", path, err)
	}
	return data, nil
}

func NewPigoSessionFactory(cascade []byte, opts PigoOptions) (*PigoSessionFactory, error) {
	if opts.QualityScale <= 0 {
		opts.QualityScale = DefaultPigoOptions().QualityScale
	}
	if _, err := unpack(cascade); err != nil {
		return nil, err
	}
	return &PigoSessionFactory{cascade: cascade, opts: opts}, nil
}

func (f *PigoSessionFactory) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	classifier, err := unpack(f.cascade)
	if err != nil {
		return nil, err
	}
	return &pigoSession{classifier: classifier, opts: f.opts}, nil
}

func unpack(cascade []byte) (classifier *pigo.Pigo, err error) {
	if len(cascade) == 0 {
		return nil, fmt.Errorf("empty cascade")
	}
	defer func() {
		if r := recover(); r != nil {
			classifier = nil
			err = fmt.Errorf("malformed cascade: %v", r)
		}
	}()
	classifier, err = pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("malformed cascade: %w", err)
	}
	return classifier, nil
}

type pigoSession struct {
	classifier *pigo.Pigo
	opts       PigoOptions
}

func (s *pigoSession) Process(ctx context.Context, img *decoder.DecodedImage) ([]Detection, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("session already closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Image.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img.Image, bounds.Min, draw.Src)

	cols, rows := gray.Rect.Dx(), gray.Rect.Dy()
	maxSize := min(cols, rows)
	if maxSize < s.opts.MinSize {
		return []Detection{}, nil
	}

	params := pigo.CascadeParams{
		MinSize:     s.opts.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: s.opts.ShiftFactor,
		ScaleFactor: s.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    gray.Stride,
		},
	}

	dets := s.classifier.RunCascade(params, 0.0)
	dets = s.classifier.ClusterDetections(dets, s.opts.IoUThreshold)

	detections := make([]Detection, 0, len(dets))
	for _, d := range dets {
		detections = append(detections, toDetection(d, cols, rows, s.opts.QualityScale))
	}
	return detections, nil
}

func (s *pigoSession) Close() error {
	s.classifier = nil
	return nil
}

// toDetection converts a pigo hit (centre + side length in pixels) into a
// relative box with a [0,1) confidence
func toDetection(d pigo.Detection, cols, rows int, qualityScale float64) Detection {
	half := float64(d.Scale) / 2
	q := float64(d.Q)
	confidence := 0.0
	if q > 0 {
		confidence = q / (q + qualityScale)
	}
	return Detection{
		Box: BoundingBox{
			X:      (float64(d.Col) - half) / float64(cols),
			Y:      (float64(d.Row) - half) / float64(rows),
			Width:  float64(d.Scale) / float64(cols),
			Height: float64(d.Scale) / float64(rows),
		},
		Confidence: confidence,
	}
}
