package analyzer

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

const (
	hueBins        = 180
	saturationBins = 256
)

// metricsCalculator computes the raw image statistics the artifact scorers
// threshold. It holds only pooled scratch buffers, never per-image state.
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 1024)
				return &s
			},
		},
	}
}

// ToGray converts img to 8-bit luma using the standard Rec. 601 weights
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// LaplacianVariance is the population variance of the 4-neighbour Laplacian
// [0,1,0; 1,-4,1; 0,1,0] over every pixel. Borders reflect without repeating
// the edge pixel, so a 1-pixel-wide image still has a defined response.
func (mc *metricsCalculator) LaplacianVariance(gray *image.Gray) float64 {
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	buf := mc.slicePool.Get().(*[]float64)
	defer func() {
		*buf = (*buf)[:0]
		mc.slicePool.Put(buf)
	}()

	data := *buf
	if cap(data) < width*height {
		data = make([]float64, 0, width*height)
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[reflect101(y, height)*gray.Stride+reflect101(x, width)])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			laplacian := -4*at(x, y) + at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y)
			data = append(data, laplacian)
		}
	}
	*buf = data

	return stat.PopVariance(data, nil)
}

// HueSaturationDispersion builds a 180x256 hue/saturation histogram and
// returns the population standard deviation of its bin counts
func (mc *metricsCalculator) HueSaturationDispersion(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	hist := make([]float64, hueBins*saturationBins)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			h, s, _ := mc.rgbToHSV(to8(r), to8(g), to8(b))

			hueBin := int(math.Round(h / 2))
			if hueBin >= hueBins {
				hueBin = 0
			}
			satBin := int(math.Round(s * 255))
			if satBin >= saturationBins {
				satBin = saturationBins - 1
			}
			hist[hueBin*saturationBins+satBin]++
		}
	}

	return stat.PopStdDev(hist, nil)
}

// rgbToHSV takes channels in [0,1] and returns h in [0,360), s and v in [0,1]
func (mc *metricsCalculator) rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * ((g - b) / delta)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}

// to8 quantises a 16-bit channel to 8 bits, then normalises to [0,1]
func to8(c uint32) float64 {
	return float64(c>>8) / 255.0
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
