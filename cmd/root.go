// Package cmd implements the cgate CLI commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
)

var (
	flagClaudeDir string
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "cgate",
	Short: "Checkpoint gate for Claude Code conversations",
	Long: "cgate watches context consumption and conversation patterns and blocks\n" +
		"session stops until reasoning state is checkpointed.",
	RunE: runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagClaudeDir, "claude-dir", "d", "", "Claude data directory (default ~/.claude)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// claudeDir resolves the Claude data directory. The --claude-dir flag
// beats the CLAUDE_CONFIG_DIR environment variable, which beats the
// config file.
func claudeDir(cfg config.Config) string {
	if flagClaudeDir != "" {
		return flagClaudeDir
	}
	return config.ClaudeDir(cfg)
}
