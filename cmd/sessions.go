package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/cli"
	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/journal"
	"github.com/theirongolddev/cgate/internal/transcript"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session list with context usage and trigger firings",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	files, err := transcript.ScanDir(claudeDir(cfg))
	if err != nil {
		return fmt.Errorf("scanning sessions: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Sampling %d transcripts...\r", len(files))
	}
	samples := transcript.SampleAll(files, nil)

	// Firing counts are display-only; a missing journal just blanks
	// the column.
	fireCounts := map[string]int{}
	if j, err := journal.Open(config.JournalPath()); err == nil {
		fireCounts, _ = j.CountBySession()
		_ = j.Close()
	}

	// Most recently active first.
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].State.LastTime.After(samples[j].State.LastTime)
	})
	if sessionsLimit > 0 && len(samples) > sessionsLimit {
		samples = samples[:sessionsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  (showing %d)", len(samples))))
	fmt.Println()

	now := time.Now()
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		project := s.File.Project
		if s.File.IsSubagent {
			project += " (sub)"
		}

		usageCell := cli.Muted("no data")
		tokens := "-"
		if s.State.Sample != nil {
			capacity := config.ResolveCapacity(cfg, s.State.Model)
			usageCell = cli.UsageBar(s.State.Sample.Percent(capacity), 16)
			tokens = cli.FormatTokens(s.State.Sample.Consumed())
		}

		fires := "-"
		if n := fireCounts[s.File.SessionID]; n > 0 {
			fires = fmt.Sprintf("%d", n)
		}

		rows = append(rows, []string{
			cli.Truncate(project, 16),
			cli.Truncate(s.File.SessionID, 12),
			usageCell,
			tokens,
			fires,
			cli.FormatRelative(s.State.LastTime, now),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Session", "Usage", "Tokens", "Fires", "Active"},
		Rows:    rows,
	}))

	return nil
}
