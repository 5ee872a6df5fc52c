package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lightning/internal/archive"
	"lightning/internal/core"
	"lightning/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded in a SQLite index",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			ix, err := openIndex(cmd)
			if err != nil {
				return err
			}
			defer ix.Close()
			runs, err := ix.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSEED\tSIZE\tREASON\tROUNDS\tPATH")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%dx%dx%d\t%s\t%d\t%d\n",
					r.ID, r.CreatedAt.Format(time.DateTime), r.Outcome.Seed,
					r.Config.Width, r.Config.Height, r.Config.Dims().Depth(),
					r.Outcome.Reason, r.Outcome.Rounds, r.Outcome.PathLength)
			}
			return tw.Flush()
		},
	}
	cmd.PersistentFlags().String("db", "lightning.db", "SQLite run index")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	cmd.AddCommand(newRunsShowCmd(), newRunsPNGCmd())
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one run and its channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			ix, err := openIndex(cmd)
			if err != nil {
				return err
			}
			defer ix.Close()
			run, err := ix.Run(cmd.Context(), id)
			if err != nil {
				return err
			}
			path, err := ix.Path(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), struct {
					store.Run
					Path []core.Coord `json:"path"`
				}{run, path})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run %d recorded %s\n", run.ID, run.CreatedAt.Format(time.DateTime))
			printOutcome(w, run.Outcome)
			if run.Archive != "" {
				fmt.Fprintf(w, "archive: %s\n", run.Archive)
			}
			for i, c := range path {
				fmt.Fprintf(w, "%5d  (%d,%d,%d)\n", i, c.X, c.Y, c.Z)
			}
			return nil
		},
	}
}

func newRunsPNGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "png ID",
		Short: "Render the final archived frame of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			scale, _ := cmd.Flags().GetInt("scale")
			ix, err := openIndex(cmd)
			if err != nil {
				return err
			}
			defer ix.Close()
			run, err := ix.Run(cmd.Context(), id)
			if err != nil {
				return err
			}
			if run.Archive == "" {
				return fmt.Errorf("run %d has no frame archive", id)
			}
			_, frames, err := archive.ReadAll(run.Archive)
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				return fmt.Errorf("archive %s holds no frames", run.Archive)
			}
			if out == "" {
				out = fmt.Sprintf("run-%d.png", id)
			}
			if err := savePNG(out, frames[len(frames)-1], scale); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s from %d frames\n", out, len(frames))
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output image (default run-ID.png)")
	cmd.Flags().Int("scale", 4, "Pixels per cell")
	return cmd
}

func openIndex(cmd *cobra.Command) (*store.Index, error) {
	path, _ := cmd.Flags().GetString("db")
	return store.Open(path)
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}
