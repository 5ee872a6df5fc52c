//go:build !ebiten

package app

import (
	"errors"

	"lightning/internal/core"
)

// ErrNoGUI is returned when the binary was built without the ebiten tag.
var ErrNoGUI = errors.New("the viewer requires building with the 'ebiten' tag")

// Game is a placeholder that satisfies the API expected by the GUI build.
type Game struct{}

// New reports that the GUI build tag is missing.
func New(s core.Sim, _ int, _ int64, _ int) (*Game, error) {
	if err := Viewable(s); err != nil {
		return nil, err
	}
	return nil, ErrNoGUI
}

// Reset is a no-op placeholder.
func (g *Game) Reset(int64) {}

// Update always reports that the GUI build tag is missing.
func (g *Game) Update() error { return ErrNoGUI }

// Draw is a no-op placeholder to satisfy the interface shape.
func (g *Game) Draw(any) {}

// Layout returns zeros in the headless build.
func (g *Game) Layout(int, int) (int, int) { return 0, 0 }

// Run reports that the GUI build tag is missing.
func Run(*Game) error { return ErrNoGUI }
