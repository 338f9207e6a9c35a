package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/endershare/internal/config"
	"github.com/rpggio/endershare/internal/render"
	"github.com/spf13/cobra"
)

func newInspectCmd(configPath *string) *cobra.Command {
	var driver, path, dir string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show stored sessions and pending restorations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if driver != "" {
				cfg.Store.Driver = driver
			}
			if path != "" {
				cfg.Store.Path = path
			}
			if dir != "" {
				cfg.Store.Dir = dir
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: parseLogLevel(cfg.Log.Level),
			}))
			store, closeStore, err := openStore(cfg.Store, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			sessions, err := store.LoadSessions(ctx)
			if err != nil {
				return err
			}
			restorations, err := store.LoadRestorations(ctx)
			if err != nil {
				return err
			}

			_, err = io.WriteString(cmd.OutOrStdout(), render.Store(render.Snapshot{
				Sessions:     sessions,
				Restorations: restorations,
			})+"\n")
			return err
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "store driver override (sqlite or yaml)")
	cmd.Flags().StringVar(&path, "db", "", "SQLite database path override")
	cmd.Flags().StringVar(&dir, "dir", "", "yaml data directory override")
	return cmd
}
