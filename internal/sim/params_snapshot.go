package sim

import (
	"fmt"
	"strconv"
	"strings"

	"lightning/internal/core"
)

// Parameters describes the run's tunables using the override keys.
func (s *Simulation) Parameters() core.ParameterSnapshot {
	return s.cfg.Parameters()
}

// Parameters describes cfg using the override keys.
func (c Config) Parameters() core.ParameterSnapshot {
	f, g := c.Field, c.Growth
	groups := []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				intParam("w", "Width", c.Width),
				intParam("h", "Height", c.Height),
				intParam("d", "Depth", c.Depth),
				int64Param("seed", "Seed", c.Seed),
				stringParam("mode", "Mode", string(c.Mode)),
			},
		},
		{
			Name: "Field",
			Params: []core.Parameter{
				floatParam("top", "Top strength", f.Edges.Top),
				floatParam("bottom", "Bottom strength", f.Edges.Bottom),
				floatParam("left", "Left strength", f.Edges.Left),
				floatParam("right", "Right strength", f.Edges.Right),
				floatParam("front", "Front strength", f.Edges.Front),
				floatParam("back", "Back strength", f.Edges.Back),
				floatParam("interior", "Interior potential", f.Interior),
				stringParam("profile", "Edge profile", string(f.Profile)),
				floatParam("sor", "SOR coefficient", f.SOR),
				floatParam("tolerance", "Tolerance", f.Tolerance),
				intParam("max_sweeps", "Max sweeps", f.MaxSweeps),
				intParam("sweeps_per_tick", "Sweeps per tick", f.SweepsPerTick),
				intParam("workers", "Sweep workers", f.Workers),
				stringParam("warm_start", "Warm start", strconv.FormatBool(f.WarmStart)),
			},
		},
		{
			Name: "Growth",
			Params: []core.Parameter{
				stringParam("policy", "Policy", string(g.Policy)),
				floatParam("eta", "Eta", g.Eta),
				intParam("sample_count", "Sample count", g.SampleCount),
				intParam("sample_radius", "Sample radius", g.SampleRadius),
				floatParam("branch_tolerance", "Branch tolerance", g.BranchTolerance),
				stringParam("layout", "Seed layout", g.Layout),
				stringParam("seeds", "Seeds", formatSeeds(g.Seeds)),
				stringParam("rods", "Rods", formatRods(g.Rods)),
				stringParam("landing", "Landing faces", strings.Join(g.LandingEdges, ",")),
				intParam("max_rounds", "Max rounds", g.MaxRounds),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// formatSeeds writes seeds the way the "seeds" override reads them.
func formatSeeds(seeds []core.Coord) string {
	parts := make([]string, len(seeds))
	for i, c := range seeds {
		parts[i] = fmt.Sprintf("%d,%d", c.X, c.Y)
		if c.Z != 0 {
			parts[i] += "," + strconv.Itoa(c.Z)
		}
	}
	return strings.Join(parts, ";")
}

// formatRods writes rods the way the "rods" override reads them.
func formatRods(rods []Rod) string {
	parts := make([]string, len(rods))
	for i, r := range rods {
		parts[i] = fmt.Sprintf("%d:%d", r.X, r.Height)
		switch {
		case r.Potential != 0:
			parts[i] += fmt.Sprintf(":%d:%s", r.Z, strconv.FormatFloat(r.Potential, 'f', -1, 64))
		case r.Z != 0:
			parts[i] += ":" + strconv.Itoa(r.Z)
		}
	}
	return strings.Join(parts, ";")
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeString,
		Value: value,
	}
}
