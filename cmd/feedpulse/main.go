package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/engine"
	"github.com/IshaanNene/feedpulse/internal/loader"
	"github.com/IshaanNene/feedpulse/internal/logging"
	"github.com/IshaanNene/feedpulse/internal/observability"
	"github.com/IshaanNene/feedpulse/internal/storage"
	"github.com/IshaanNene/feedpulse/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	hashtag    string
	maxScrolls int
	outputPath string
	outputType string
	metricsOn  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "feedpulse",
		Short: "feedpulse: hashtag post extraction and sentiment tagging",
		Long: `feedpulse loads a hashtag search feed in a headless browser, extracts
each post's author, text and timestamp, tags it Positive, Negative or
Neutral, and writes the records to CSV, JSON, JSONL, SQLite or MongoDB.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (yaml, toml, json or ini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addOutputFlags registers the flags shared by commands that write records.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (overrides settings.output_file)")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: csv, json, jsonl, sqlite, mongo")
	cmd.Flags().BoolVar(&metricsOn, "metrics", false, "serve Prometheus metrics during the run")
}

// setup loads, overrides and validates the configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, logger, nil
}

// applyCLIOverrides applies command-line flag values to the config.
// Only flags the user set take effect.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("hashtag") {
		cfg.Settings.Hashtag = strings.TrimPrefix(hashtag, "#")
	}
	if flags.Changed("max-scrolls") {
		cfg.Settings.MaxScrolls = maxScrolls
	}
	if flags.Changed("output") {
		cfg.Settings.OutputFile = outputPath
	}
	if flags.Changed("format") {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled = metricsOn
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *logging.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// runEngine runs one extraction over surface and reports the outcome.
func runEngine(ctx context.Context, cfg *config.Config, surface loader.Surface, logger *logging.Logger) error {
	outputFile := cfg.Settings.OutputFile
	store := storage.NewLazy(storageName(cfg), func() (storage.Storage, error) {
		return storage.New(cfg.Storage, outputFile, logger.Logger)
	})
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing storage failed", "error", err)
		}
	}()

	opts := []engine.Option{engine.WithStorage(store)}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts = append(opts, engine.WithObserver(observability.NewPromObserver(reg)))

		server := observability.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, reg, logger.Logger)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	eng, err := engine.New(cfg, surface, logger.Logger, opts...)
	if err != nil {
		return err
	}

	res, err := eng.Run(ctx)
	switch {
	case errors.Is(err, types.ErrNoRecords):
		printSummary(res, "")
		fmt.Println("\nNo records produced. The page loaded but no post passed extraction.")
		if cfg.Browser.DebugDump != "" && res.Load != nil && len(res.Load.Fragments) == 0 {
			fmt.Printf("   Page saved for inspection: %s\n", cfg.Browser.DebugDump)
		}
		return nil
	case errors.Is(err, types.ErrSurfaceUnavailable):
		return fmt.Errorf("surface unavailable: %w", err)
	case err != nil:
		return err
	}

	printSummary(res, outputFile)
	return nil
}

func storageName(cfg *config.Config) string {
	if cfg.Storage.Type != "" {
		return cfg.Storage.Type
	}
	return storage.TypeFromPath(cfg.Settings.OutputFile)
}

func printSummary(res *engine.Result, output string) {
	if res == nil {
		return
	}
	stats := res.Stats

	fmt.Printf("\n✅ Run %s complete in %s\n", res.RunID, res.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Load:      %d scrolls, stopped %s\n", stats.LoadIterations, stats.LoadStop)
	fmt.Printf("   Posts:     %d found, %d records, %d dropped\n",
		stats.FragmentsSeen, stats.RecordsEmitted, stats.CandidatesDropped)
	for reason, n := range stats.Discards {
		fmt.Printf("              %s: %d\n", reason, n)
	}
	if output != "" {
		fmt.Printf("   Output:    %s\n", output)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("feedpulse %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.Credentials.Password != "" {
				cfg.Credentials.Password = "********"
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))

			if err := config.Validate(cfg); err != nil {
				fmt.Printf("\n# invalid: %v\n", err)
			}
			return nil
		},
	}
}
