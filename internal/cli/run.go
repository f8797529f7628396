package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/spyglass/internal/bridge"
	"github.com/soyeahso/spyglass/internal/config"
	"github.com/soyeahso/spyglass/internal/events"
	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/plugins/logrecords"
	"github.com/soyeahso/spyglass/internal/state"
	"github.com/soyeahso/spyglass/internal/statestore"
	"github.com/soyeahso/spyglass/internal/transport"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the inspector and run the demo plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Bridge.Host = host
			}
			if port != 0 {
				cfg.Bridge.Port = port
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			log = logging.New(nil, cfg.Logging.Level, cfg.Logging.Style)
			trail := state.NewTrail()
			ev := events.NewManager(log)

			if cfg.State.Persist {
				dbPath := cfg.State.Path
				if dbPath == "" {
					dbPath = paths.StepDBPath()
				}
				stepLog, err := statestore.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening step log: %w", err)
				}
				defer stepLog.Close()
				stepLog.Watch(trail)
			}

			mgr := transport.New(transport.Options{
				URL:         cfg.Bridge.URL(),
				Token:       cfg.Bridge.Token,
				App:         cfg.App.Name,
				DeviceID:    cfg.App.DeviceID,
				DialTimeout: time.Duration(cfg.Bridge.DialTimeoutSeconds) * time.Second,
				OutboxSize:  cfg.Bridge.OutboxSize,
			}, log)
			client := bridge.New(mgr, trail, ev, log)
			mgr.SetReceiver(client)

			logPlugin := logrecords.New(0)
			if err := client.AddPlugin(logPlugin); err != nil {
				return err
			}

			ev.On(events.BridgeConnected, "cli", func(events.Payload) error {
				logPlugin.Record("info", "bridge connected")
				return nil
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("url", cfg.Bridge.URL()).Msg("starting bridge")
			if err := mgr.Run(ctx); err != nil {
				return err
			}

			log.Info().Msg("bridge stopped")
			fmt.Print(client.State())
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "inspector host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "inspector port (overrides config)")
	return cmd
}
