package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dupescan/internal/filter"
	"dupescan/internal/scan"
	"dupescan/internal/tui"
)

var (
	flagReset string
	flagList  string
	flagPlain bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Scan one or more directory trees into the database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, err := scan.ParseResetPolicy(flagReset)
		if err != nil {
			return err
		}

		policy := filter.Default()
		if flagFilters != "" {
			policy, err = filter.Load(flagFilters)
			if err != nil {
				return err
			}
		}

		roots := make([]string, len(args))
		for i, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			roots[i] = abs
		}

		cfg := scan.Config{
			DBPath:     flagDB,
			Roots:      roots,
			Reset:      reset,
			Policy:     policy,
			MirrorPath: flagList,
		}

		start := time.Now()
		var stats *scan.Stats
		if flagPlain {
			cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			stats, err = runPlain(cfg)
		} else {
			// Diagnostics would garble the live display; the summary
			// carries the counts instead.
			cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			stats, err = tui.Run(cfg)
		}
		elapsed := time.Since(start)

		if stats != nil && flagPlain {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Roots:   %d\n", stats.Roots)
			fmt.Printf("  Visited: %d entries\n", stats.Visited)
			fmt.Printf("  Files:   %d recorded\n", stats.Recorded)
			if stats.DirsUnreadable > 0 {
				fmt.Printf("  Skipped: %d unreadable directories\n", stats.DirsUnreadable)
			}
		}

		return err
	},
}

func runPlain(cfg scan.Config) (*scan.Stats, error) {
	s, err := scan.New(cfg)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Run()
}

func init() {
	scanCmd.Flags().StringVar(&flagReset, "reset", "keep", "reset policy: keep (append to prior records) or clear")
	scanCmd.Flags().StringVar(&flagList, "list", "", "also write recorded rows to a plain-text file")
	scanCmd.Flags().BoolVar(&flagPlain, "plain", false, "plain stderr logging instead of the progress display")
	rootCmd.AddCommand(scanCmd)
}
