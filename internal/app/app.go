//go:build ebiten

package app

import (
	"errors"
	"time"

	"lightning/internal/core"
	"lightning/internal/render"
	"lightning/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	frames  frameSource
	painter *render.GridPainter
	hud     *ui.HUD

	scale    int
	panel    int
	paused   bool
	tickOnce bool
	seed     int64
	pacer    *core.FixedStep
}

// New constructs a Game for the provided simulation. tps limits the growth
// rounds per second; zero steps once per frame.
func New(s core.Sim, scale int, seed int64, tps int) (*Game, error) {
	frames, ok := s.(frameSource)
	if !ok {
		return nil, errNoFrames(s)
	}
	style, err := render.DefaultStyle()
	if err != nil {
		return nil, err
	}
	g := &Game{
		sim:     s,
		frames:  frames,
		painter: render.NewGridPainter(s.Size().W, s.Size().H, style),
		hud:     ui.NewHUD(s, PanelWidth),
		panel:   PanelWidth,
		scale:   max(scale, 1),
		seed:    seed,
	}
	if tps > 0 {
		g.pacer = core.NewFixedStep(tps)
	}
	return g, nil
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	switch in := readInput(); {
	case in.quit:
		return ebiten.Termination
	case in.restart:
		g.Reset(g.seed)
	case in.reseed:
		g.Reset(time.Now().UnixNano())
	default:
		if in.pause {
			g.paused = !g.paused
		}
		if in.resume {
			g.paused = false
		}
		if in.step {
			g.tickOnce = true
		}
	}

	if g.tickOnce || (!g.paused && (g.pacer == nil || g.pacer.ShouldStep())) {
		g.sim.Step()
		g.tickOnce = false
	}
	g.hud.Update()
	return nil
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.frames.Snapshot(), g.scale)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.panel, s.H * g.scale
}

type input struct {
	quit, pause, resume, step, restart, reseed bool
}

func readInput() input {
	pressed := inpututil.IsKeyJustPressed
	return input{
		quit:    pressed(ebiten.KeyQ) || pressed(ebiten.KeyEscape),
		pause:   pressed(ebiten.KeySpace),
		resume:  pressed(ebiten.KeyEnter),
		step:    pressed(ebiten.KeyN),
		restart: pressed(ebiten.KeyR) || pressed(ebiten.KeyI),
		reseed:  pressed(ebiten.KeyS),
	}
}

// Run opens a window titled after the simulation and blocks until it closes.
func Run(g *Game) error {
	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("lightning - " + g.sim.Name())
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
