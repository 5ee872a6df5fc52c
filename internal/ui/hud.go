//go:build ebiten

package ui

import (
	"image/color"

	"lightning/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const lineHeight = 14

// HUD renders the status and parameter panel to the right of the view.
type HUD struct {
	sim   core.Sim
	width int
	panel *ebiten.Image
	lines []string
}

// NewHUD constructs a HUD for the provided simulation and panel width.
func NewHUD(sim core.Sim, width int) *HUD {
	if width < 0 {
		width = 0
	}
	return &HUD{sim: sim, width: width}
}

// Update refreshes the panel text from the simulation.
func (h *HUD) Update() {
	if h == nil || h.width == 0 {
		return
	}
	var snap core.ParameterSnapshot
	if p, ok := h.sim.(core.ParameterProvider); ok {
		snap = p.Parameters()
	}
	h.lines = PanelLines(StatusOf(h.sim), snap)
}

// Draw paints the panel at offsetX.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})
	for i, line := range h.lines {
		y := 16 + i*lineHeight
		if y > height {
			break
		}
		text.Draw(h.panel, line, basicfont.Face7x13, 8, y, color.White)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}
