package ui

import (
	"slices"
	"strings"
	"testing"

	"lightning/internal/core"
	"lightning/internal/sim"
)

func TestStatusOfSimulation(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Width, cfg.Height = 12, 12
	s, err := sim.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3 && !s.Done(); i++ {
		s.Step()
	}
	st := StatusOf(s)
	out := s.Outcome()
	if st.Name != "lightning" || st.Rounds != out.Rounds || st.Path != out.PathLength || st.Landed != out.Landed {
		t.Fatalf("status %+v does not match outcome %+v", st, out)
	}
}

func TestStatusOfLaplace(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	l, err := sim.NewLaplace(cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Step()
	if st := StatusOf(l); st.Name != "laplace" || st.Sweeps != cfg.Field.SweepsPerTick {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestPanelLines(t *testing.T) {
	snap := core.ParameterSnapshot{Groups: []core.ParameterGroup{{
		Name:   "Field",
		Params: []core.Parameter{{Key: "sor", Value: "1.8"}},
	}}}
	lines := PanelLines(Status{Name: "lightning", Rounds: 4, Landed: true}, snap)
	if lines[0] != "LIGHTNING" {
		t.Fatalf("title = %q", lines[0])
	}
	if !slices.Contains(lines, "status  landed") || !slices.Contains(lines, "rounds  4") {
		t.Fatalf("status rows missing: %q", lines)
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "sor") || !strings.HasSuffix(last, "1.8") {
		t.Fatalf("parameter row = %q", last)
	}
	if got := PanelLines(Status{Reason: "stalled"}, core.ParameterSnapshot{}); !slices.Contains(got, "status  stalled") {
		t.Fatalf("reason row missing: %q", got)
	}
}
