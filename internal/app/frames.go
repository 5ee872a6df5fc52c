// Package app hosts the interactive viewer. The window itself needs the
// ebiten build tag; headless builds get a stub that reports the missing tag.
package app

import (
	"fmt"

	"lightning/internal/core"
	"lightning/internal/sim"
)

// PanelWidth is the width in pixels of the side panel.
const PanelWidth = 220

type frameSource interface {
	Snapshot() sim.Frame
}

func errNoFrames(s core.Sim) error {
	return fmt.Errorf("%w: simulation %q has no frame snapshots to display", core.ErrConfiguration, s.Name())
}

// Viewable reports whether s can be shown by the viewer.
func Viewable(s core.Sim) error {
	if _, ok := s.(frameSource); !ok {
		return errNoFrames(s)
	}
	return nil
}
