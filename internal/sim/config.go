package sim

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lightning/internal/core"
	"lightning/internal/field"
	"lightning/internal/growth"
)

// Mode selects how the field is kept in step with the growing path.
type Mode string

const (
	// ModeStatic solves the field once before growth and never again.
	ModeStatic Mode = "static"
	// ModeCoupled relaxes a few sweeps every round so the path reshapes the field.
	ModeCoupled Mode = "coupled"
)

// Seed layouts used when no explicit seeds are configured.
const (
	LayoutSingle = "single"
	LayoutCloud  = "cloud"
)

// Rod is a grounded column rising from the bottom face. Reaching any rod cell
// lands the discharge.
type Rod struct {
	X      int `yaml:"x" json:"x"`
	Z      int `yaml:"z,omitempty" json:"z,omitempty"`
	Height int `yaml:"height" json:"height"`
	// Potential is fixed on every rod cell. Zero takes the bottom face strength.
	Potential float64 `yaml:"potential,omitempty" json:"potential,omitempty"`
}

// FieldConfig controls the potential solver.
type FieldConfig struct {
	Edges         field.Strengths `yaml:"edges" json:"edges"`
	Interior      float64         `yaml:"interior" json:"interior"`
	Profile       field.Profile   `yaml:"profile" json:"profile"`
	SOR           float64         `yaml:"sor" json:"sor"`
	Tolerance     float64         `yaml:"tolerance" json:"tolerance"`
	MaxSweeps     int             `yaml:"max_sweeps" json:"max_sweeps"`
	SweepsPerTick int             `yaml:"sweeps_per_tick" json:"sweeps_per_tick"`
	// Workers > 0 splits each red-black phase across that many goroutines.
	Workers int `yaml:"workers" json:"workers"`
	// WarmStart solves to tolerance before the first coupled round.
	WarmStart bool `yaml:"warm_start" json:"warm_start"`
}

// GrowthConfig controls the breakdown process.
type GrowthConfig struct {
	growth.Params `yaml:",inline"`

	Policy       growth.Policy `yaml:"policy" json:"policy"`
	Seeds        []core.Coord  `yaml:"seeds,omitempty" json:"seeds,omitempty"`
	Layout       string        `yaml:"layout" json:"layout"`
	LandingEdges []string      `yaml:"landing_edges,omitempty" json:"landing_edges,omitempty"`
	// MaxRounds caps the run. Zero means the cell count.
	MaxRounds int   `yaml:"max_rounds" json:"max_rounds"`
	Rods      []Rod `yaml:"rods,omitempty" json:"rods,omitempty"`
}

// Config describes one simulation run.
type Config struct {
	Width  int `yaml:"w" json:"w"`
	Height int `yaml:"h" json:"h"`
	// Depth <= 1 runs in 2D.
	Depth int   `yaml:"d" json:"d"`
	Seed  int64 `yaml:"seed" json:"seed"`
	Mode  Mode  `yaml:"mode" json:"mode"`

	Field  FieldConfig  `yaml:"field" json:"field"`
	Growth GrowthConfig `yaml:"growth" json:"growth"`
}

// DefaultConfig returns a 2D coupled run: a grounded channel grows from the
// middle of the top face towards a charged bottom face.
func DefaultConfig() Config {
	return Config{
		Width:  128,
		Height: 128,
		Seed:   1337,
		Mode:   ModeCoupled,
		Field: FieldConfig{
			Edges:         field.Strengths{Bottom: 1},
			Interior:      0.5,
			Profile:       field.ProfileUniform,
			SOR:           1.8,
			Tolerance:     1e-4,
			MaxSweeps:     10000,
			SweepsPerTick: 10,
		},
		Growth: GrowthConfig{
			Params: growth.DefaultParams(),
			Policy: growth.PolicyRadius,
			Layout: LayoutSingle,
		},
	}
}

// Dims returns the grid dimensions.
func (c Config) Dims() core.Dims {
	d := c.Depth
	if d <= 1 {
		d = 0
	}
	return core.Dims{W: c.Width, H: c.Height, D: d}
}

// LoadFile reads a YAML config on top of DefaultConfig.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &core.ConfigError{Key: "file", Value: path, Reason: err.Error()}
	}
	return cfg, nil
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(kv map[string]string) (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyOverrides(kv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// OverrideKeys lists every key ApplyOverrides understands.
func OverrideKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyOverrides sets fields from key/value pairs. Unknown keys and
// unparsable values are configuration errors.
func (c *Config) ApplyOverrides(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set, ok := setters[strings.ToLower(k)]
		if !ok {
			return &core.ConfigError{Key: k, Value: kv[k], Reason: "unknown option"}
		}
		if err := set(c, strings.TrimSpace(kv[k])); err != nil {
			return &core.ConfigError{Key: k, Value: kv[k], Reason: err.Error()}
		}
	}
	return nil
}

var setters = map[string]func(*Config, string) error{
	"w":                intSetter(func(c *Config) *int { return &c.Width }),
	"h":                intSetter(func(c *Config) *int { return &c.Height }),
	"d":                intSetter(func(c *Config) *int { return &c.Depth }),
	"seed":             func(c *Config, v string) (err error) { c.Seed, err = strconv.ParseInt(v, 10, 64); return },
	"mode":             func(c *Config, v string) error { c.Mode = Mode(strings.ToLower(v)); return nil },
	"top":              floatSetter(func(c *Config) *float64 { return &c.Field.Edges.Top }),
	"bottom":           floatSetter(func(c *Config) *float64 { return &c.Field.Edges.Bottom }),
	"left":             floatSetter(func(c *Config) *float64 { return &c.Field.Edges.Left }),
	"right":            floatSetter(func(c *Config) *float64 { return &c.Field.Edges.Right }),
	"front":            floatSetter(func(c *Config) *float64 { return &c.Field.Edges.Front }),
	"back":             floatSetter(func(c *Config) *float64 { return &c.Field.Edges.Back }),
	"interior":         floatSetter(func(c *Config) *float64 { return &c.Field.Interior }),
	"profile":          func(c *Config, v string) error { c.Field.Profile = field.Profile(strings.ToLower(v)); return nil },
	"sor":              floatSetter(func(c *Config) *float64 { return &c.Field.SOR }),
	"tolerance":        floatSetter(func(c *Config) *float64 { return &c.Field.Tolerance }),
	"max_sweeps":       intSetter(func(c *Config) *int { return &c.Field.MaxSweeps }),
	"sweeps_per_tick":  intSetter(func(c *Config) *int { return &c.Field.SweepsPerTick }),
	"workers":          intSetter(func(c *Config) *int { return &c.Field.Workers }),
	"warm_start":       func(c *Config, v string) (err error) { c.Field.WarmStart, err = strconv.ParseBool(v); return },
	"policy":           func(c *Config, v string) error { c.Growth.Policy = growth.Policy(strings.ToLower(v)); return nil },
	"eta":              floatSetter(func(c *Config) *float64 { return &c.Growth.Eta }),
	"sample_count":     intSetter(func(c *Config) *int { return &c.Growth.SampleCount }),
	"m":                intSetter(func(c *Config) *int { return &c.Growth.SampleCount }),
	"sample_radius":    intSetter(func(c *Config) *int { return &c.Growth.SampleRadius }),
	"branch_tolerance": floatSetter(func(c *Config) *float64 { return &c.Growth.BranchTolerance }),
	"layout":           func(c *Config, v string) error { c.Growth.Layout = strings.ToLower(v); return nil },
	"max_rounds":       intSetter(func(c *Config) *int { return &c.Growth.MaxRounds }),
	"landing": func(c *Config, v string) error {
		c.Growth.LandingEdges = splitList(v, ",")
		return nil
	},
	"seeds": func(c *Config, v string) error {
		var seeds []core.Coord
		for _, item := range splitList(v, ";") {
			coord, err := parseCoord(item)
			if err != nil {
				return err
			}
			seeds = append(seeds, coord)
		}
		c.Growth.Seeds = seeds
		return nil
	},
	"rods": func(c *Config, v string) error {
		var rods []Rod
		for _, item := range splitList(v, ";") {
			rod, err := parseRod(item)
			if err != nil {
				return err
			}
			rods = append(rods, rod)
		}
		c.Growth.Rods = rods
		return nil
	},
}

// parseRod reads "x:height[:z[:potential]]".
func parseRod(s string) (Rod, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return Rod{}, fmt.Errorf("rod %q: expected x:height[:z[:potential]]", s)
	}
	var ints [3]int
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return Rod{}, fmt.Errorf("rod %q: %w", s, err)
		}
		ints[i] = n
	}
	rod := Rod{X: ints[0], Height: ints[1], Z: ints[2]}
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return Rod{}, fmt.Errorf("rod %q: %w", s, err)
		}
		rod.Potential = v
	}
	return rod, nil
}

func intSetter(ptr func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*ptr(c) = n
		return nil
	}
}

func floatSetter(ptr func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*ptr(c) = f
		return nil
	}
}

func splitList(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseCoord reads "x,y" or "x,y,z".
func parseCoord(s string) (core.Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Coord{}, fmt.Errorf("coordinate %q: expected x,y[,z]", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return core.Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		vals[i] = n
	}
	return core.Coord{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Validate reports the first option no run could start with.
func (c Config) Validate() error {
	d := c.Dims()
	if d.W <= 2 || d.H <= 2 || c.Depth == 2 {
		return fmt.Errorf("%w: %dx%dx%d", field.ErrInvalidDimension, c.Width, c.Height, c.Depth)
	}
	if c.Mode != ModeStatic && c.Mode != ModeCoupled {
		return &core.ConfigError{Key: "mode", Value: c.Mode, Reason: "expected static or coupled"}
	}
	f := c.Field
	if !(f.SOR > 0 && f.SOR < 2) {
		return fmt.Errorf("%w: %v", field.ErrInvalidSOR, f.SOR)
	}
	if !(f.Tolerance > 0) || f.MaxSweeps <= 0 {
		return fmt.Errorf("%w: tolerance=%v max_sweeps=%d", field.ErrInvalidSweeps, f.Tolerance, f.MaxSweeps)
	}
	if c.Mode == ModeCoupled && f.SweepsPerTick <= 0 {
		return fmt.Errorf("%w: sweeps_per_tick=%d", field.ErrInvalidSweeps, f.SweepsPerTick)
	}
	if f.Workers < 0 {
		return &core.ConfigError{Key: "workers", Value: f.Workers, Reason: "must not be negative"}
	}
	if f.Profile != "" && f.Profile != field.ProfileUniform && f.Profile != field.ProfileSine {
		return &core.ConfigError{Key: "profile", Value: f.Profile, Reason: "expected uniform or sine"}
	}

	g := c.Growth
	if _, err := growth.ParsePolicy(string(g.Policy)); err != nil {
		return err
	}
	if err := g.Params.Validate(); err != nil {
		return err
	}
	if g.MaxRounds < 0 {
		return &core.ConfigError{Key: "max_rounds", Value: g.MaxRounds, Reason: "must not be negative"}
	}
	if g.Layout != "" && g.Layout != LayoutSingle && g.Layout != LayoutCloud {
		return &core.ConfigError{Key: "layout", Value: g.Layout, Reason: "expected single or cloud"}
	}
	if _, err := c.landingEdges(); err != nil {
		return err
	}
	for _, s := range g.Seeds {
		if !d.Contains(s) {
			return fmt.Errorf("%w: seed %v", growth.ErrOutOfBounds, s)
		}
	}
	for _, r := range g.Rods {
		if r.X < 0 || r.X >= d.W || r.Z < 0 || r.Z >= d.Depth() || r.Height <= 0 || r.Height >= d.H-1 {
			return &core.ConfigError{Key: "rods", Value: fmt.Sprintf("%+v", r), Reason: "rod outside the grid"}
		}
	}
	return nil
}

func (c Config) landingEdges() (core.EdgeSet, error) {
	var set core.EdgeSet
	d := c.Dims()
	for _, name := range c.Growth.LandingEdges {
		e, err := core.ParseEdge(name)
		if err != nil {
			return 0, err
		}
		if !d.AllEdges().Has(e) {
			return 0, &core.ConfigError{Key: "landing_edges", Value: name, Reason: "face does not exist on a 2D grid"}
		}
		set = set.With(e)
	}
	return set, nil
}

// seeds returns the configured seeds or the layout's defaults.
func (c Config) seeds() []core.Coord {
	if len(c.Growth.Seeds) > 0 {
		return c.Growth.Seeds
	}
	d := c.Dims()
	z := d.Depth() / 2
	if c.Growth.Layout == LayoutCloud {
		return []core.Coord{
			{X: d.W / 4, Z: z},
			{X: d.W / 2, Z: z},
			{X: d.W * 3 / 4, Z: z},
		}
	}
	return []core.Coord{{X: d.W / 2, Z: z}}
}

// rodCells expands every rod into the cells it occupies, bottom face excluded.
func (c Config) rodCells() []core.Coord {
	var cells []core.Coord
	for _, r := range c.Growth.Rods {
		for i := 1; i <= r.Height; i++ {
			cells = append(cells, core.Coord{X: r.X, Y: c.Height - 1 - i, Z: r.Z})
		}
	}
	return cells
}
