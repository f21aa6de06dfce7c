package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Claude directory: %s\n", claudeDir(cfg))
	fmt.Printf("    Save command:     %s\n", cfg.General.SaveCommand)
	fmt.Println()

	fmt.Println("  [Usage]")
	fmt.Printf("    Capacity:           %d tokens\n", cfg.Usage.Capacity)
	fmt.Printf("    Stop threshold:     %d%%\n", cfg.Usage.ThresholdPercent)
	fmt.Printf("    Subagent threshold: %d%%\n", cfg.Usage.SubagentThresholdPercent)
	for model, size := range cfg.Usage.CapacityOverrides {
		fmt.Printf("    Override %q: %d tokens\n", model, size)
	}
	fmt.Println()

	fmt.Println("  [Cooldown]")
	fmt.Printf("    Usage window:   %ds\n", cfg.Cooldown.UsageWindowSecs)
	fmt.Printf("    Pattern window: %ds\n", cfg.Cooldown.PatternWindowSecs)
	fmt.Println()

	fmt.Println("  [Retention]")
	fmt.Printf("    Markers: %d days\n", cfg.Retention.MarkerDays)
	fmt.Printf("    Journal: %d days\n", cfg.Retention.JournalDays)
	fmt.Println()

	fmt.Println("  Run `cgate setup` to reconfigure.")
	return nil
}
