package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lightning/internal/core"
	"lightning/internal/sim"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the resolved configuration and the recognized override keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			snap := cfg.Parameters()
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), struct {
					Parameters core.ParameterSnapshot `json:"parameters"`
					Keys       []string               `json:"keys"`
					Sims       []string               `json:"sims"`
				}{snap, sim.OverrideKeys(), core.SimNames()})
			}
			w := cmd.OutOrStdout()
			for _, g := range snap.Groups {
				fmt.Fprintf(w, "[%s]\n", g.Name)
				for _, p := range g.Params {
					fmt.Fprintf(w, "  %-16s %-8s %s\n", p.Key, p.Type, p.Value)
				}
			}
			fmt.Fprintf(w, "\nkeys: %s\n", strings.Join(sim.OverrideKeys(), ", "))
			fmt.Fprintf(w, "sims: %s\n", strings.Join(core.SimNames(), ", "))
			return nil
		},
	}
	addConfigFlags(cmd)
	return cmd
}
