package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lightning/internal/core"
	"lightning/internal/sim"
	"lightning/internal/store"
	random "lightning/pkg/core"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootSubcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "sweep", "serve", "runs", "params", "view", "version"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestParseSets(t *testing.T) {
	kv, err := parseSets([]string{"w=10", " eta = 2", "seeds=1,0;5,0"})
	if err != nil {
		t.Fatal(err)
	}
	if kv["w"] != "10" || kv["eta"] != " 2" || kv["seeds"] != "1,0;5,0" {
		t.Fatalf("unexpected overrides %v", kv)
	}
	for _, bad := range []string{"w", "=3"} {
		if _, err := parseSets([]string{bad}); !errors.Is(err, core.ErrConfiguration) {
			t.Errorf("%q: expected a configuration error, got %v", bad, err)
		}
	}
}

func drawnSeeds(first int64, n int) []int64 {
	src := random.NewRNG(first).Source()
	out := make([]int64, n)
	for i := range out {
		out[i] = src.Int64()
	}
	return out
}

func TestDrawnSeedsAreDistinct(t *testing.T) {
	seeds, err := sweepSeeds("", 10, 16, true)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seeds, drawnSeeds(10, 16)) {
		t.Fatal("drawn seeds are not reproducible")
	}
	seen := map[int64]bool{}
	for _, s := range seeds {
		if seen[s] {
			t.Fatalf("seed %d drawn twice", s)
		}
		seen[s] = true
	}
}

func TestSweepSeeds(t *testing.T) {
	tests := []struct {
		name  string
		list  string
		first int64
		count int
		drawn bool
		want  []int64
		err   bool
	}{
		{"count", "", 10, 3, false, []int64{10, 11, 12}, false},
		{"list", "4, 9,2", 0, 8, true, []int64{4, 9, 2}, false},
		{"drawn", "", 10, 3, true, drawnSeeds(10, 3), false},
		{"zero count", "", 1, 0, false, nil, true},
		{"bad list", "4,x", 0, 1, false, nil, true},
		{"empty list", " , ", 0, 1, false, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sweepSeeds(tt.list, tt.first, tt.count, tt.drawn)
			if tt.err {
				if !errors.Is(err, core.ErrConfiguration) {
					t.Fatalf("expected a configuration error, got %v", err)
				}
				return
			}
			if err != nil || !slices.Equal(got, tt.want) {
				t.Fatalf("sweepSeeds = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestRunArchivesIndexesAndRenders(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	arc := filepath.Join(dir, "run.zst")
	img := filepath.Join(dir, "run.png")

	out, err := execRoot(t, "run", "--json", "--set", "w=16", "--set", "h=16",
		"--archive", arc, "--db", db, "--png", img)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.ID != 1 || report.Outcome.Reason == sim.ReasonNone {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Frames != report.Outcome.Rounds+1 {
		t.Fatalf("archived %d frames for %d rounds", report.Frames, report.Outcome.Rounds)
	}
	if _, err := os.Stat(img); err != nil {
		t.Fatalf("png not written: %v", err)
	}

	out, err = execRoot(t, "runs", "--db", db, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var runs []store.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Archive != arc || runs[0].Outcome.PathLength != report.Outcome.PathLength {
		t.Fatalf("unexpected index %+v", runs)
	}

	out, err = execRoot(t, "runs", "show", "1", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "run 1 recorded") {
		t.Fatalf("show output %q", out)
	}

	replay := filepath.Join(dir, "replay.png")
	if _, err := execRoot(t, "runs", "png", "1", "--db", db, "-o", replay); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(replay); err != nil {
		t.Fatalf("replay png not written: %v", err)
	}

	if _, err := execRoot(t, "runs", "show", "7", "--db", db); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	if _, err := execRoot(t, "run", "--set", "sor=3"); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	if _, err := execRoot(t, "run", "--set", "colour=red"); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestSweepCommand(t *testing.T) {
	out, err := execRoot(t, "sweep", "--json", "--seeds", "3,4,5", "--workers", "2", "--set", "w=12", "--set", "h=12")
	if err != nil {
		t.Fatal(err)
	}
	var results []sim.SweepResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[0].Seed != 3 || results[2].Seed != 5 {
		t.Fatalf("unexpected results %+v", results)
	}

	out, err = execRoot(t, "sweep", "--count", "2", "--set", "w=12", "--set", "h=12")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "of 2 runs landed") {
		t.Fatalf("sweep summary missing: %q", out)
	}
}

func TestParamsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("w: 40\ngrowth:\n  eta: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execRoot(t, "params", "-c", path, "--set", "h=30", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Parameters core.ParameterSnapshot `json:"parameters"`
		Keys       []string               `json:"keys"`
		Sims       []string               `json:"sims"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	values := map[string]string{}
	for _, g := range got.Parameters.Groups {
		for _, p := range g.Params {
			values[p.Key] = p.Value
		}
	}
	if values["w"] != "40" || values["h"] != "30" || values["eta"] != "4" {
		t.Fatalf("unexpected parameters %v", values)
	}
	if !slices.Contains(got.Keys, "sor") || !slices.Contains(got.Sims, "lightning") {
		t.Fatalf("keys %v sims %v", got.Keys, got.Sims)
	}
}

func TestServeRunsToCompletion(t *testing.T) {
	out, err := execRoot(t, "serve", "--json", "--addr", "127.0.0.1:0", "--tps", "1000", "--linger", "0s",
		"--set", "w=12", "--set", "h=12")
	if err != nil {
		t.Fatal(err)
	}
	var got sim.Outcome
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Reason == sim.ReasonNone || got.Rounds == 0 {
		t.Fatalf("unexpected outcome %+v", got)
	}
}

func TestVersion(t *testing.T) {
	out, err := execRoot(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("version output %q", out)
	}
}
