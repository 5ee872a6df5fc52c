package store

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"lightning/internal/sim"
)

func TestIndexSavesAndLoadsRuns(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(filepath.Join(t.TempDir(), "db", "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ix.Close()

	cfg := sim.DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	var ids []int64
	var lengths []int
	for _, seed := range []int64{3, 4} {
		cfg.Seed = seed
		s, err := sim.New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		out, err := s.RunToCompletion(ctx)
		if err != nil {
			t.Fatal(err)
		}
		id, err := ix.SaveRun(ctx, cfg, out, s.Engine().Path(), "archive.zst")
		if err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		ids = append(ids, id)
		lengths = append(lengths, len(s.Engine().Path()))

		got, err := ix.Run(ctx, id)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got.Outcome.Seed != seed || got.Outcome.Reason != out.Reason || got.Outcome.Rounds != out.Rounds || got.Outcome.Landed != out.Landed {
			t.Fatalf("outcome mismatch: %+v vs %+v", got.Outcome, out)
		}
		if got.Config.Width != 16 || got.Config.Growth.SampleCount != cfg.Growth.SampleCount || got.Archive != "archive.zst" {
			t.Fatalf("config mismatch: %+v", got)
		}
		path, err := ix.Path(ctx, id)
		if err != nil {
			t.Fatalf("Path: %v", err)
		}
		if !slices.Equal(path, s.Engine().Path()) {
			t.Fatalf("stored path differs")
		}
	}

	runs, err := ix.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[1] || runs[1].ID != ids[0] {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	if runs[1].Outcome.PathLength != lengths[0] {
		t.Fatalf("path length %d, expected %d", runs[1].Outcome.PathLength, lengths[0])
	}
	limited, err := ix.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit: %v %d", err, len(limited))
	}
	if _, err := ix.Run(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
