package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/feedpulse/internal/fetcher"
)

// parseCmd creates the "parse" subcommand.
func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract posts from a saved page",
		Long: `Run extraction and classification over a page saved earlier, such as
the debug dump of a scrape. Files ending in .gz or .br are decompressed.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	addOutputFlags(cmd)
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	snap, err := fetcher.OpenSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}

	// A saved page cannot grow and is already on disk.
	cfg.Settings.MaxScrolls = 0
	cfg.Browser.DebugDump = ""

	logger.Info("parsing saved page", "path", snap.Path, "output", cfg.Settings.OutputFile)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return runEngine(ctx, cfg, snap, logger)
}
