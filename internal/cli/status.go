package cli

import (
	"fmt"

	"github.com/soyeahso/spyglass/internal/config"
	"github.com/soyeahso/spyglass/internal/statestore"
	"github.com/soyeahso/spyglass/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spyglass configuration and recorded bridge history",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("spyglass %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Bridge:  %s (app=%s device=%s)\n", cfg.Bridge.URL(), cfg.App.Name, cfg.App.DeviceID)
			fmt.Printf("Logging: level=%s style=%s\n", cfg.Logging.Level, cfg.Logging.Style)

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Println()
				for _, issue := range issues {
					fmt.Printf("Issue:   %s\n", issue)
				}
			}

			if cfg.State.Persist {
				dbPath := cfg.State.Path
				if dbPath == "" {
					dbPath = paths.StepDBPath()
				}
				stepLog, err := statestore.Open(dbPath, log)
				if err != nil {
					fmt.Printf("Steps:   error opening %s: %v\n", dbPath, err)
					return nil
				}
				defer stepLog.Close()

				elems, err := stepLog.Elements()
				if err != nil {
					return err
				}
				fmt.Printf("\nRecorded steps (%d):\n", len(elems))
				for _, e := range elems {
					fmt.Printf("  %-8s %s\n", e.Status, e.Name)
				}
			}

			return nil
		},
	}
	return cmd
}
