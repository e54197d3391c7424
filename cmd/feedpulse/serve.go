package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/feedpulse/internal/api"
	"github.com/IshaanNene/feedpulse/internal/storage"
)

var (
	servePath string
	serveAddr string
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over a read-only JSON API",
		Long: `Expose the runs in a SQLite database written with --format sqlite:
  GET /api/runs
  GET /api/runs/{id}/records
  GET /api/runs/{id}/summary?top=N`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			db, err := storage.NewSQLiteStorage(servePath, logger.Logger)
			if err != nil {
				return fmt.Errorf("open %s: %w", servePath, err)
			}
			defer db.Close()

			ctx, cancel := signalContext(logger)
			defer cancel()
			return api.NewServer(serveAddr, db, logger.Logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&servePath, "db", "data/posts.db", "SQLite database to serve")
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	return cmd
}
