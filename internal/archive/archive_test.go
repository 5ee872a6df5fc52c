package archive

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"lightning/internal/sim"
)

func TestArchiveRecordsRun(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	s, err := sim.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "runs", "run.frames.zst")
	w, err := Create(path, Header{Seed: cfg.Seed, Config: cfg})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var want []sim.Frame
	for !s.Done() {
		if _, err := s.Tick(); err != nil {
			t.Fatal(err)
		}
		fr := s.Snapshot()
		want = append(want, fr)
		if err := w.WriteFrame(fr); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h, frames, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if h.Version != Version || h.Seed != cfg.Seed || h.Config.Width != 16 {
		t.Fatalf("unexpected header %+v", h)
	}
	if len(frames) != len(want) {
		t.Fatalf("read %d frames, wrote %d", len(frames), len(want))
	}
	last, got := want[len(want)-1], frames[len(frames)-1]
	if got.Tick != last.Tick || got.Reason != last.Reason || !got.Landed {
		t.Fatalf("last frame mismatch: %+v", got)
	}
	if !slices.Equal(got.States, last.States) || !slices.Equal(got.Path, last.Path) || !slices.Equal(got.Potential, last.Potential) {
		t.Fatal("last frame contents differ")
	}
	if s.Outcome().Rounds != len(frames) {
		t.Fatalf("outcome reports %d rounds for %d frames", s.Outcome().Rounds, len(frames))
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	if err := os.WriteFile(path, []byte("not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected an error for a non-zstd file")
	}
}
