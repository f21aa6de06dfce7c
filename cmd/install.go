package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register cgate's hooks in Claude Code's settings.json",
	RunE:  runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove cgate's hook entries from settings.json",
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(installCmd, uninstallCmd)
}

// hookEvents maps Claude Code hook event names to the cgate
// subcommands registered for them.
var hookEvents = []struct {
	Event      string
	Subcommand string
}{
	{"Stop", "stop"},
	{"SubagentStop", "subagent-stop"},
	{"PreCompact", "precompact"},
}

// settingsPath returns the Claude Code settings.json where hooks are
// registered, honoring the --claude-dir flag.
func settingsPath(cfg config.Config) string {
	return filepath.Join(claudeDir(cfg), "settings.json")
}

// hookTimeoutSecs is the per-hook timeout registered in settings.json.
// Hook invocations complete near-instantly; the timeout only guards
// against a wedged filesystem.
const hookTimeoutSecs = 10

func runInstall(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	binaryPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving binary path: %w", err)
	}

	path := settingsPath(cfg)
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	installHooks(settings, binaryPath)

	if err := writeSettings(path, settings); err != nil {
		return err
	}

	fmt.Printf("  Registered %d hooks in %s\n", len(hookEvents), path)
	fmt.Println("  Run `cgate uninstall` to remove them.")
	return nil
}

func runUninstall(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path := settingsPath(cfg)
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	removed := removeHooks(settings)
	if removed == 0 {
		fmt.Println("  No cgate hooks found.")
		return nil
	}

	if err := writeSettings(path, settings); err != nil {
		return err
	}

	fmt.Printf("  Removed %d hook entries from %s\n", removed, path)
	return nil
}

// readSettings loads settings.json as a generic map so unrelated keys
// survive the round trip untouched. A missing file is an empty map.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// installHooks merges cgate's hook registrations into settings,
// replacing any existing cgate entries so re-running install is
// idempotent. Hook entries owned by other tools are preserved.
func installHooks(settings map[string]any, binaryPath string) {
	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
		settings["hooks"] = hooks
	}

	for _, he := range hookEvents {
		entries := withoutCgateEntries(hooks[he.Event])
		entries = append(entries, map[string]any{
			"hooks": []any{
				map[string]any{
					"type":    "command",
					"command": binaryPath + " hook " + he.Subcommand,
					"timeout": hookTimeoutSecs,
				},
			},
		})
		hooks[he.Event] = entries
	}
}

// removeHooks strips cgate's entries and cleans up empty containers.
// Returns the number of entries removed.
func removeHooks(settings map[string]any) int {
	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		return 0
	}

	removed := 0
	for _, he := range hookEvents {
		before, _ := hooks[he.Event].([]any)
		after := withoutCgateEntries(hooks[he.Event])
		removed += len(before) - len(after)

		if len(after) == 0 {
			delete(hooks, he.Event)
		} else {
			hooks[he.Event] = after
		}
	}

	if len(hooks) == 0 {
		delete(settings, "hooks")
	}
	return removed
}

// withoutCgateEntries filters a hook matcher list down to the entries
// cgate does not own.
func withoutCgateEntries(raw any) []any {
	entries, _ := raw.([]any)

	var kept []any
	for _, e := range entries {
		if !isCgateEntry(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

// isCgateEntry reports whether a hook matcher entry was registered by
// cgate. Ownership is recognized by the command string: the cgate
// binary name followed by a " hook " subcommand.
func isCgateEntry(entry any) bool {
	m, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	inner, _ := m["hooks"].([]any)
	for _, h := range inner {
		hm, ok := h.(map[string]any)
		if !ok {
			continue
		}
		command, _ := hm["command"].(string)
		if strings.Contains(command, "cgate") && strings.Contains(command, " hook ") {
			return true
		}
	}
	return false
}
