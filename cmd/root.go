package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDB      string
	flagFilters string
)

var rootCmd = &cobra.Command{
	Use:   "dupescan",
	Short: "Record file fingerprints across directory trees to find duplicates",
	Long: `dupescan walks directory trees, computes a CRC32 fingerprint for each
accepted file, and records (fingerprint, name, path, size) rows in a
SQLite database. Duplicate files then show up as rows sharing a
fingerprint, queryable with any SQLite browser. Runs append to the same
database by default, so one base scan can be compared against later
scans of other drives or directories.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "dupescan.db", "database path")
	rootCmd.PersistentFlags().StringVar(&flagFilters, "filters", "", "YAML file with filter denylists (default built-in policy)")
}
