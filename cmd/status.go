package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/cli"
	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/cooldown"
	"github.com/theirongolddev/cgate/internal/journal"
	"github.com/theirongolddev/cgate/internal/transcript"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gate configuration, recent firings, and session usage",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CGATE STATUS"))
	fmt.Println()

	fmt.Printf("  Config:   %s", config.ConfigPath())
	if !config.Exists() {
		fmt.Print(cli.Muted("  (defaults, no file — run `cgate setup`)"))
	}
	fmt.Println()
	fmt.Printf("  Markers:  %s\n", config.MarkersDir())
	fmt.Printf("  Journal:  %s\n", config.JournalPath())
	fmt.Println()
	fmt.Printf("  Stop gate %d%%, subagents %d%%; cooldowns %ds usage / %ds pattern\n",
		cfg.Usage.ThresholdPercent, cfg.Usage.SubagentThresholdPercent,
		cfg.Cooldown.UsageWindowSecs, cfg.Cooldown.PatternWindowSecs)
	fmt.Println()

	printRecentFirings()
	printTopSessions(cfg)

	return nil
}

func printRecentFirings() {
	j, err := journal.Open(config.JournalPath())
	if err != nil {
		fmt.Println(cli.Muted("  Journal unavailable."))
		fmt.Println()
		return
	}
	defer func() { _ = j.Close() }()

	firings, err := j.Recent(8)
	if err != nil || len(firings) == 0 {
		fmt.Println(cli.Muted("  No firings recorded."))
		fmt.Println()
		return
	}

	now := time.Now()
	rows := make([][]string, 0, len(firings))
	for _, f := range firings {
		detail := "-"
		if f.Percent > 0 {
			detail = fmt.Sprintf("%d%%", f.Percent)
		}
		rows = append(rows, []string{
			cli.Truncate(f.SessionID, 14),
			string(f.Trigger),
			detail,
			cli.FormatRelative(f.CreatedAt, now),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recent Firings",
		Headers: []string{"Session", "Trigger", "Usage", "When"},
		Rows:    rows,
	}))
	fmt.Println()
}

// printTopSessions tail-samples every discovered transcript and lists
// the sessions closest to their context limit.
func printTopSessions(cfg config.Config) {
	files, err := transcript.ScanDir(claudeDir(cfg))
	if err != nil || len(files) == 0 {
		fmt.Println(cli.Muted("  No sessions found."))
		return
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Sampling %d transcripts...\r", len(files))
	}
	samples := transcript.SampleAll(files, nil)

	type row struct {
		sample  transcript.SessionSample
		percent int
	}
	var rows []row
	for _, s := range samples {
		if s.State.Sample == nil {
			continue
		}
		capacity := config.ResolveCapacity(cfg, s.State.Model)
		rows = append(rows, row{s, s.State.Sample.Percent(capacity)})
	}
	if len(rows) == 0 {
		fmt.Println(cli.Muted("  No sessions with usage data."))
		return
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].percent > rows[j].percent
	})
	if len(rows) > 5 {
		rows = rows[:5]
	}

	now := time.Now()
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			cli.Truncate(r.sample.File.Project, 16),
			cli.UsageBar(r.percent, 20),
			cli.FormatTokens(r.sample.State.Sample.Consumed()),
			cli.FormatRelative(r.sample.State.LastTime, now),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Top Sessions by Context Usage",
		Headers: []string{"Project", "Usage", "Tokens", "Active"},
		Rows:    tableRows,
	}))

	markers, _ := cooldown.List(config.MarkersDir())
	if len(markers) > 0 {
		fmt.Printf("\n  %d cooldown markers on disk (prune with `cgate prune`)\n", len(markers))
	}
	fmt.Println()
}
