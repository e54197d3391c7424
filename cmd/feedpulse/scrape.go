package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/feedpulse/internal/fetcher"
	"github.com/IshaanNene/feedpulse/internal/types"
)

var (
	headless    bool
	userDataDir string
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Extract posts for a hashtag from the live feed",
		Long: `Open a browser session, sign in, search the hashtag and scroll the
results until the page stops growing or the scroll budget is spent. Every
post found is classified and written to the configured output.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	cmd.Flags().StringVarP(&hashtag, "hashtag", "t", "", "hashtag to search, with or without '#'")
	cmd.Flags().IntVarP(&maxScrolls, "max-scrolls", "s", 0, "maximum scroll iterations")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	cmd.Flags().StringVar(&userDataDir, "user-data-dir", "", "persistent browser profile directory")
	addOutputFlags(cmd)

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("user-data-dir") {
		cfg.Browser.UserDataDir = userDataDir
	}
	if strings.TrimSpace(cfg.Settings.Hashtag) == "" {
		return fmt.Errorf("no hashtag: set settings.hashtag or pass --hashtag")
	}

	logger.Info("starting scrape",
		"hashtag", cfg.Settings.Hashtag,
		"max_scrolls", cfg.Settings.MaxScrolls,
		"output", cfg.Settings.OutputFile,
		"format", storageName(cfg),
	)

	ctx, cancel := signalContext(logger)
	defer cancel()

	session, err := fetcher.NewSession(ctx, cfg.Browser, logger.Logger)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSurfaceUnavailable, err)
	}
	defer session.Close()

	if err := session.Login(ctx, cfg.Credentials); err != nil {
		if errors.Is(err, types.ErrNoCredentials) {
			return fmt.Errorf("%w: set credentials.username/password or FEEDPULSE_CREDENTIALS_*", err)
		}
		return fmt.Errorf("surface unavailable: %w", err)
	}
	if err := session.OpenSearch(ctx, cfg.Settings.Hashtag); err != nil {
		return fmt.Errorf("surface unavailable: %w", err)
	}

	return runEngine(ctx, cfg, session, logger)
}
