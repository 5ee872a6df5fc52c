package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lightning/internal/app"
	"lightning/internal/core"
	"lightning/internal/sim"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Watch a simulation in a window (requires -tags ebiten)",
		Long: `view opens a window on a registered simulation.

Keys: Space pause, Enter resume, N single step, R or I restart,
S restart with a fresh seed, Q or Esc quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("sim")
			scale, _ := cmd.Flags().GetInt("scale")
			tps, _ := cmd.Flags().GetInt("tps")
			sets, _ := cmd.Flags().GetStringArray("set")

			factory, ok := core.Sims()[name]
			if !ok {
				return &core.ConfigError{Key: "sim", Value: name, Reason: fmt.Sprintf("unknown simulation, have %v", core.SimNames())}
			}
			kv, err := parseSets(sets)
			if err != nil {
				return err
			}
			s, err := factory(kv)
			if err != nil {
				return err
			}
			seed := sim.DefaultConfig().Seed
			if c, ok := s.(interface{ Config() sim.Config }); ok {
				seed = c.Config().Seed
			}
			g, err := app.New(s, scale, seed, tps)
			if err != nil {
				return err
			}
			return app.Run(g)
		},
	}
	cmd.Flags().String("sim", "lightning", "Registered simulation to show")
	cmd.Flags().StringArray("set", nil, "Override a setting as key=value (repeatable)")
	cmd.Flags().Int("scale", 4, "Pixels per cell")
	cmd.Flags().Int("tps", 30, "Rounds per second (0 steps every frame)")
	return cmd
}
