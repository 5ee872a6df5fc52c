//go:build ebiten

package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"lightning/internal/sim"
)

// GridPainter uploads painted frames into a single ebiten image.
type GridPainter struct {
	painter *Painter
	img     *ebiten.Image
}

// NewGridPainter allocates a painter for a grid layer of size w*h.
func NewGridPainter(w, h int, style Style) *GridPainter {
	return &GridPainter{painter: NewPainter(w, h, style), img: ebiten.NewImage(w, h)}
}

// Blit paints fr and draws it onto dst scaled by scale. Frames of the wrong
// size are skipped.
func (gp *GridPainter) Blit(dst *ebiten.Image, fr sim.Frame, scale int) {
	buf, err := gp.painter.Paint(fr)
	if err != nil {
		return
	}
	gp.img.WritePixels(buf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.painter.Size() }
