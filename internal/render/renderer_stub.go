//go:build !ebiten

package render

import "lightning/internal/sim"

// GridPainter is a placeholder for builds without the ebiten tag.
type GridPainter struct {
	painter *Painter
}

// NewGridPainter returns a painter that only fills its pixel buffer.
func NewGridPainter(w, h int, style Style) *GridPainter {
	return &GridPainter{painter: NewPainter(w, h, style)}
}

// Blit paints fr without drawing it anywhere.
func (gp *GridPainter) Blit(_ any, fr sim.Frame, _ int) {
	_, _ = gp.painter.Paint(fr)
}

// Size returns the layer dimensions.
func (gp *GridPainter) Size() (int, int) { return gp.painter.Size() }
