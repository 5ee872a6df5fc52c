//go:build !ebiten

package main

import (
	"errors"
	"testing"

	"lightning/internal/app"
	"lightning/internal/core"
)

func TestViewNeedsEbitenTag(t *testing.T) {
	if _, err := execRoot(t, "view", "--set", "w=16", "--set", "h=16"); !errors.Is(err, app.ErrNoGUI) {
		t.Fatalf("expected ErrNoGUI, got %v", err)
	}
	if _, err := execRoot(t, "view", "--sim", "plasma"); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}
