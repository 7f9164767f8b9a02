// Package decoder turns fetched bytes into a pixel buffer with known
// dimensions and channel layout.
package decoder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
)

// DefaultMaxPixels rejects images whose header declares more pixels than this
const DefaultMaxPixels = 50_000_000

// DecodedImage is never mutated after decode
type DecodedImage struct {
	Image        image.Image
	Width        int
	Height       int
	ChannelCount int
	Format       string
}

// ImageDecoder converts raw bytes into a DecodedImage
type ImageDecoder interface {
	Decode(data []byte) (*DecodedImage, error)
}

type Decoder struct {
	MaxPixels int
}

func New() *Decoder {
	return &Decoder{MaxPixels: DefaultMaxPixels}
}

// Decode returns a decode error for empty, truncated, oversized or
// unsupported input
func (d *Decoder) Decode(data []byte) (decoded *DecodedImage, err error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("empty image data", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			decoded = nil
			err = apperrors.NewDecodeError("image decoder failed", fmt.Errorf("%v", r))
		}
	}()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("unsupported or corrupt image", err)
	}
	if d.MaxPixels > 0 && cfg.Width*cfg.Height > d.MaxPixels {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("image too large: %dx%d", cfg.Width, cfg.Height), nil)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode "+format+" image", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, apperrors.NewDecodeError("image has no pixels", nil)
	}

	return &DecodedImage{
		Image:        img,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		ChannelCount: channelCount(img),
		Format:       format,
	}, nil
}

func channelCount(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr, *image.Paletted:
		return 3
	case *image.CMYK:
		return 4
	default:
		return 4
	}
}
