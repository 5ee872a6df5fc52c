// Package render turns simulation frames into pixels.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"lightning/internal/growth"
	"lightning/internal/sim"
)

// Style selects the colours used to paint a frame.
type Style struct {
	// Palette colours the potential. Without one the background is Off.
	Palette   []color.RGBA
	Off       color.Color
	Channel   color.Color
	Landed    color.Color
	Candidate color.Color
}

// DefaultStyle paints the potential with PotentialPalette, the channel white,
// a landed channel yellow and candidates as a faint grey wash.
func DefaultStyle() (Style, error) {
	palette, err := PotentialPalette(PaletteSize)
	if err != nil {
		return Style{}, err
	}
	return Style{
		Palette:   palette,
		Off:       color.Black,
		Channel:   color.White,
		Landed:    color.RGBA{R: 0xff, G: 0xe0, B: 0x40, A: 0xff},
		Candidate: color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0x40},
	}, nil
}

// Layer returns the displayed z slice of a frame, the middle one on 3D grids.
func Layer(fr sim.Frame) (potential []float64, states []uint8) {
	plane := fr.Dims.W * fr.Dims.H
	z := fr.Dims.Depth() / 2
	lo, hi := z*plane, (z+1)*plane
	if hi <= len(fr.Potential) {
		potential = fr.Potential[lo:hi]
	}
	if hi <= len(fr.States) {
		states = fr.States[lo:hi]
	}
	return potential, states
}

// Painter converts frames of one grid size into an RGBA buffer it reuses.
type Painter struct {
	w, h   int
	style  Style
	buf    []byte
	levels []uint8
}

// NewPainter allocates a painter for a w*h layer.
func NewPainter(w, h int, style Style) *Painter {
	if style.Off == nil {
		style.Off = color.Black
	}
	if style.Channel == nil {
		style.Channel = color.White
	}
	return &Painter{w: w, h: h, style: style, buf: make([]byte, 4*w*h), levels: make([]uint8, w*h)}
}

// Size returns the layer dimensions.
func (p *Painter) Size() (int, int) { return p.w, p.h }

// Paint fills the pixel buffer from fr and returns it. The buffer is owned by
// the painter and overwritten by the next call.
func (p *Painter) Paint(fr sim.Frame) ([]byte, error) {
	if fr.Dims.W != p.w || fr.Dims.H != p.h {
		return nil, fmt.Errorf("frame is %dx%d, painter expects %dx%d", fr.Dims.W, fr.Dims.H, p.w, p.h)
	}
	potential, states := Layer(fr)
	if len(states) != p.w*p.h {
		return nil, fmt.Errorf("frame carries %d states for a %dx%d layer", len(states), p.w, p.h)
	}
	channel := p.style.Channel
	if fr.Landed && p.style.Landed != nil {
		channel = p.style.Landed
	}
	conductive := uint8(growth.Conductive)

	if len(p.style.Palette) == 0 || len(potential) != len(states) {
		fillBinaryRGBA(p.buf, states, conductive, channel, p.style.Off)
		return p.buf, nil
	}
	Quantize(p.levels, potential, len(p.style.Palette))
	fillPaletteRGBA(p.buf, p.levels, p.style.Palette)
	if p.style.Candidate != nil {
		overlayRGBA(p.buf, states, uint8(growth.Candidate), p.style.Candidate)
	}
	overlayRGBA(p.buf, states, conductive, channel)
	return p.buf, nil
}

// Image paints fr into a new image scaled by an integer factor.
func (p *Painter) Image(fr sim.Frame, scale int) (*image.RGBA, error) {
	buf, err := p.Paint(fr)
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, p.w*scale, p.h*scale))
	for y := 0; y < p.h*scale; y++ {
		row := img.Pix[y*img.Stride:]
		src := buf[(y/scale)*p.w*4:]
		for x := 0; x < p.w*scale; x++ {
			copy(row[x*4:x*4+4], src[(x/scale)*4:(x/scale)*4+4])
		}
	}
	return img, nil
}

// WritePNG encodes fr as a PNG image.
func WritePNG(w io.Writer, fr sim.Frame, style Style, scale int) error {
	img, err := NewPainter(fr.Dims.W, fr.Dims.H, style).Image(fr, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
