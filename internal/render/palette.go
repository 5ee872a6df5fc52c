package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/crazy3lf/colorconv"
)

// PaletteSize is the number of potential levels in the default palette.
const PaletteSize = 256

// PotentialPalette returns n colours sweeping the hue from cyan at potential 0
// to red at potential 1.
func PotentialPalette(n int) ([]color.RGBA, error) {
	if n < 2 || n > PaletteSize {
		return nil, fmt.Errorf("palette size %d outside [2,%d]", n, PaletteSize)
	}
	palette := make([]color.RGBA, n)
	for i := range palette {
		p := float64(i) / float64(n-1)
		hue := math.Mod((0.5+p*0.5)*360, 360)
		r, g, b, err := colorconv.HSVToRGB(hue, 1, 1)
		if err != nil {
			return nil, fmt.Errorf("palette level %d: %w", i, err)
		}
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return palette, nil
}

// Quantize maps potentials in [0,1] onto palette levels 0..levels-1. Values
// outside the range are clamped.
func Quantize(dst []uint8, values []float64, levels int) {
	if levels < 1 {
		levels = 1
	}
	if levels > PaletteSize {
		levels = PaletteSize
	}
	top := float64(levels - 1)
	for i, v := range values {
		v = math.Max(0, math.Min(1, v))
		dst[i] = uint8(math.Round(v * top))
	}
}
