package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lightning/internal/archive"
	"lightning/internal/render"
	"lightning/internal/sim"
	"lightning/internal/store"
)

type runReport struct {
	ID      int64       `json:"id,omitempty"`
	Outcome sim.Outcome `json:"outcome"`
	Archive string      `json:"archive,omitempty"`
	Frames  int         `json:"frames,omitempty"`
	Image   string      `json:"image,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Grow one discharge to completion",
		Example: `  lightning run --set w=200 --set h=200 --set eta=2 --png bolt.png
  lightning run -c storm.yaml --archive runs/storm.zst --db runs/index.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archivePath, _ := cmd.Flags().GetString("archive")
			dbPath, _ := cmd.Flags().GetString("db")
			pngPath, _ := cmd.Flags().GetString("png")
			scale, _ := cmd.Flags().GetInt("scale")

			s, frames, err := execute(cmd.Context(), cfg, newLogger(cmd), archivePath)
			if err != nil {
				return err
			}
			report := runReport{Outcome: s.Outcome(), Archive: archivePath, Frames: frames}

			if pngPath != "" {
				if err := savePNG(pngPath, s.Snapshot(), scale); err != nil {
					return err
				}
				report.Image = pngPath
			}
			if dbPath != "" {
				ix, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer ix.Close()
				report.ID, err = ix.SaveRun(cmd.Context(), cfg, report.Outcome, s.Engine().Path(), archivePath)
				if err != nil {
					return err
				}
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printOutcome(cmd.OutOrStdout(), report.Outcome)
			if report.ID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "indexed as run %d\n", report.ID)
			}
			return nil
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().String("archive", "", "Write every frame to a zstd archive at this path")
	cmd.Flags().String("db", "", "Record the run in this SQLite index")
	cmd.Flags().String("png", "", "Save the final frame as a PNG image")
	cmd.Flags().Int("scale", 4, "Pixels per cell in the PNG image")
	return cmd
}

// execute runs cfg to completion, archiving every frame when archivePath is
// set. A run stopped by an error still returns its simulation.
func execute(ctx context.Context, cfg sim.Config, log *slog.Logger, archivePath string) (*sim.Simulation, int, error) {
	opts := []sim.Option{sim.WithLogger(log)}
	var w *archive.Writer
	var s *sim.Simulation
	if archivePath != "" {
		var err error
		w, err = archive.Create(archivePath, archive.Header{Seed: cfg.Seed, Config: cfg})
		if err != nil {
			return nil, 0, err
		}
		opts = append(opts, sim.WithTickHook(func(sim.TickResult) error {
			return w.WriteFrame(s.Snapshot())
		}))
	}

	s, err := sim.New(cfg, opts...)
	if err != nil {
		if w != nil {
			_ = w.Close()
		}
		return nil, 0, err
	}
	if w == nil {
		_, err = s.RunToCompletion(ctx)
		return s, 0, err
	}
	if err = w.WriteFrame(s.Snapshot()); err == nil {
		_, err = s.RunToCompletion(ctx)
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return s, w.Frames(), err
}

func savePNG(path string, fr sim.Frame, scale int) error {
	style, err := render.DefaultStyle()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, fr, style, scale); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printOutcome(w io.Writer, out sim.Outcome) {
	fmt.Fprintf(w, "seed %d: %s after %d rounds (path %d cells, %d sweeps, %s)\n",
		out.Seed, out.Reason, out.Rounds, out.PathLength, out.Sweeps, out.Elapsed.Round(time.Millisecond))
	if out.CapReached {
		fmt.Fprintln(w, "warning: the field solve hit its sweep cap")
	}
	if out.Error != "" {
		fmt.Fprintf(w, "error: %s\n", out.Error)
	}
}
