//go:build !ebiten

package app

import (
	"errors"
	"testing"

	"lightning/internal/core"
	"lightning/internal/sim"
)

type bareSim struct{}

func (bareSim) Name() string { return "bare" }
func (bareSim) Size() core.Size { return core.Size{W: 1, H: 1} }
func (bareSim) Cells() []uint8 { return []uint8{0} }
func (bareSim) Step() {}
func (bareSim) Reset(int64) {}

func TestHeadlessViewer(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(s, 4, 1, 30); !errors.Is(err, ErrNoGUI) {
		t.Fatalf("expected ErrNoGUI, got %v", err)
	}
	if _, err := New(bareSim{}, 4, 1, 30); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected a configuration error for a sim without frames, got %v", err)
	}
	if err := Run(nil); !errors.Is(err, ErrNoGUI) {
		t.Fatalf("Run: %v", err)
	}
}
