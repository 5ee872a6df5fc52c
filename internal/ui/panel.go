// Package ui draws the side panel of the interactive viewer.
package ui

import (
	"fmt"
	"strings"

	"lightning/internal/core"
	"lightning/internal/sim"
)

type outcomeProvider interface {
	Outcome() sim.Outcome
}

type frameProvider interface {
	Snapshot() sim.Frame
}

// Status is the run summary printed above the parameters.
type Status struct {
	Name   string
	Rounds int
	Sweeps int
	Path   int
	Landed bool
	Reason string
}

// StatusOf reads whatever summary the simulation can report.
func StatusOf(s core.Sim) Status {
	st := Status{Name: s.Name()}
	switch p := s.(type) {
	case outcomeProvider:
		out := p.Outcome()
		st.Rounds, st.Sweeps, st.Path = out.Rounds, out.Sweeps, out.PathLength
		st.Landed, st.Reason = out.Landed, string(out.Reason)
	case frameProvider:
		st.Sweeps = p.Snapshot().Tick
	}
	return st
}

// PanelLines lays out the status and the parameter snapshot as text rows.
func PanelLines(st Status, snap core.ParameterSnapshot) []string {
	title := st.Name
	if title == "" {
		title = "simulation"
	}
	lines := []string{strings.ToUpper(title), ""}
	lines = append(lines,
		fmt.Sprintf("rounds  %d", st.Rounds),
		fmt.Sprintf("sweeps  %d", st.Sweeps),
		fmt.Sprintf("path    %d", st.Path),
	)
	switch {
	case st.Landed:
		lines = append(lines, "status  landed")
	case st.Reason != "":
		lines = append(lines, "status  "+st.Reason)
	default:
		lines = append(lines, "status  running")
	}
	for _, g := range snap.Groups {
		lines = append(lines, "", g.Name)
		for _, p := range g.Params {
			lines = append(lines, fmt.Sprintf("  %-16s %s", p.Key, p.Value))
		}
	}
	return lines
}
