package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"lightning/internal/core"
	"lightning/internal/logging"
	"lightning/internal/sim"
)

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "YAML run configuration")
	cmd.Flags().StringArray("set", nil, "Override a setting as key=value (repeatable)")
}

// parseSets turns repeated key=value flags into an override map.
func parseSets(sets []string) (map[string]string, error) {
	kv := make(map[string]string, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, &core.ConfigError{Key: "set", Value: s, Reason: "expected key=value"}
		}
		kv[k] = v
	}
	return kv, nil
}

// loadConfig resolves defaults, the --config file and --set overrides, in
// that order, and validates the result.
func loadConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := sim.LoadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	sets, _ := cmd.Flags().GetStringArray("set")
	kv, err := parseSets(sets)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyOverrides(kv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.NewLogger(level, cmd.ErrOrStderr())
}
