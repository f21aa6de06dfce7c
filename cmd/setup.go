package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/transcript"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the existing config so re-running setup edits rather
	// than resets.
	cfg, _ := config.Load()

	files, _ := transcript.ScanDir(claudeDir(cfg))

	fmt.Println()
	fmt.Println("  Welcome to cgate!")
	if len(files) > 0 {
		fmt.Printf("  Found %d sessions under %s.\n", len(files), claudeDir(cfg))
	}
	fmt.Println()

	var (
		claudeDirVal   = cfg.General.ClaudeDir
		saveCommandVal = cfg.General.SaveCommand
		capacityVal    = strconv.FormatInt(cfg.Usage.Capacity, 10)
		thresholdVal   = strconv.Itoa(cfg.Usage.ThresholdPercent)
		subThreshVal   = strconv.Itoa(cfg.Usage.SubagentThresholdPercent)
		usageWindowVal = strconv.Itoa(cfg.Cooldown.UsageWindowSecs)
		patWindowVal   = strconv.Itoa(cfg.Cooldown.PatternWindowSecs)
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Claude data directory").
				Description("Leave blank for ~/.claude").
				Value(&claudeDirVal),
			huh.NewInput().
				Title("Context window capacity (tokens)").
				Description("Used when the model has no table entry").
				Value(&capacityVal).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Stop block threshold (%)").
				Value(&thresholdVal).
				Validate(validatePercent),
			huh.NewInput().
				Title("Subagent block threshold (%)").
				Value(&subThreshVal).
				Validate(validatePercent),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Usage cooldown window (seconds)").
				Description("Suppresses immediate re-blocking after a usage fire").
				Value(&usageWindowVal).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Pattern cooldown window (seconds)").
				Description("Per-trigger suppression for the semantic gate").
				Value(&patWindowVal).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Checkpoint save command").
				Description("Named in block instructions").
				Value(&saveCommandVal),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.General.ClaudeDir = claudeDirVal
	cfg.General.SaveCommand = saveCommandVal
	cfg.Usage.Capacity, _ = strconv.ParseInt(capacityVal, 10, 64)
	cfg.Usage.ThresholdPercent, _ = strconv.Atoi(thresholdVal)
	cfg.Usage.SubagentThresholdPercent, _ = strconv.Atoi(subThreshVal)
	cfg.Cooldown.UsageWindowSecs, _ = strconv.Atoi(usageWindowVal)
	cfg.Cooldown.PatternWindowSecs, _ = strconv.Atoi(patWindowVal)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `cgate install` to register the hooks.")
	fmt.Println()
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return errors.New("enter a positive number")
	}
	return nil
}

func validatePercent(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 100 {
		return errors.New("enter a percentage from 1 to 100")
	}
	return nil
}
