package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lightning/internal/sim"
	"lightning/internal/stream"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream a run to websocket renderers on the loopback interface",
		Long: `serve runs one discharge and publishes a frame after every round on
ws://ADDR/ws. The run configuration is served as JSON on http://ADDR/config.
Only loopback clients are accepted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			tps, _ := cmd.Flags().GetInt("tps")
			wait, _ := cmd.Flags().GetInt("wait")
			linger, _ := cmd.Flags().GetDuration("linger")

			log := newLogger(cmd)
			s, err := sim.New(cfg, sim.WithLogger(log))
			if err != nil {
				return err
			}
			hub := stream.NewHub(log)
			mux := http.NewServeMux()
			mux.HandleFunc("/ws", hub.Handler())
			mux.HandleFunc("/config", stream.ConfigHandler(cfg))

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			fmt.Fprintf(cmd.ErrOrStderr(), "streaming on ws://%s/ws\n", ln.Addr())

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			var out sim.Outcome
			g.Go(func() error {
				defer shutdown(srv)
				if err := waitForObservers(ctx, hub, wait); err != nil {
					return err
				}
				var err error
				out, err = stream.Run(ctx, s, hub, tps)
				if err != nil {
					return err
				}
				select {
				case <-ctx.Done():
				case <-time.After(linger):
				}
				return nil
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().String("addr", "127.0.0.1:8737", "Listen address")
	cmd.Flags().Int("tps", 30, "Growth rounds per second")
	cmd.Flags().Int("wait", 0, "Wait for this many observers before starting")
	cmd.Flags().Duration("linger", 10*time.Second, "Keep serving this long after the run ends")
	return cmd
}

func waitForObservers(ctx context.Context, hub *stream.Hub, n int) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for hub.Subscribers() < n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
