package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/cooldown"
	"github.com/theirongolddev/cgate/internal/journal"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cooldown markers and journal rows past retention",
	Long: "Sessions are never explicitly destroyed, so marker files and journal\n" +
		"rows accumulate. Prune deletes state older than the configured\n" +
		"retention. Hooks never prune inline.",
	RunE: runPrune,
}

var pruneDryRun bool

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Report what would be removed without deleting")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	now := time.Now()

	if cfg.Retention.MarkerDays < 0 {
		fmt.Println("  Markers: retention disabled, skipping.")
	} else {
		cutoff := now.AddDate(0, 0, -cfg.Retention.MarkerDays)
		if pruneDryRun {
			n := countStaleMarkers(cutoff)
			fmt.Printf("  Markers: %d older than %d days would be removed.\n", n, cfg.Retention.MarkerDays)
		} else {
			n, err := cooldown.Prune(config.MarkersDir(), cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("  Markers: removed %d older than %d days.\n", n, cfg.Retention.MarkerDays)
		}
	}

	if cfg.Retention.JournalDays < 0 {
		fmt.Println("  Journal: retention disabled, skipping.")
		return nil
	}

	j, err := journal.Open(config.JournalPath())
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	cutoff := now.AddDate(0, 0, -cfg.Retention.JournalDays)
	if pruneDryRun {
		n, err := j.CountOlderThan(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("  Journal: %d rows older than %d days would be removed.\n", n, cfg.Retention.JournalDays)
		return nil
	}

	n, err := j.Prune(cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("  Journal: removed %d rows older than %d days.\n", n, cfg.Retention.JournalDays)
	return nil
}

// countStaleMarkers counts markers past the cutoff without touching
// them, for --dry-run.
func countStaleMarkers(cutoff time.Time) int {
	markers, err := cooldown.List(config.MarkersDir())
	if err != nil {
		return 0
	}
	n := 0
	for _, m := range markers {
		if m.FiredAt.Before(cutoff) {
			n++
		}
	}
	return n
}
