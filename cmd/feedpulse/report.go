package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/feedpulse/internal/report"
	"github.com/IshaanNene/feedpulse/internal/storage"
)

var topAuthors int

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [csv]",
		Short: "Summarize a CSV written by scrape or parse",
		Long:  "Print the sentiment distribution, the most active authors and posting activity per day.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := storage.ReadCSV(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			report.Render(os.Stdout, report.Summarize(ds, topAuthors))
			return nil
		},
	}
	cmd.Flags().IntVarP(&topAuthors, "top", "n", report.DefaultTopAuthors, "number of authors to list")
	return cmd
}
