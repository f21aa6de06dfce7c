package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of per-session context usage and firings",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	p := tea.NewProgram(watch.New(cfg, claudeDir(cfg)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
