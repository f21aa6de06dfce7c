package cmd

import (
	"testing"
)

func TestInstallHooks_FreshSettings(t *testing.T) {
	settings := map[string]any{}

	installHooks(settings, "/usr/local/bin/cgate")

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		t.Fatal("hooks key not created")
	}
	for _, he := range hookEvents {
		entries, ok := hooks[he.Event].([]any)
		if !ok || len(entries) != 1 {
			t.Fatalf("%s: entries = %v", he.Event, hooks[he.Event])
		}
		if !isCgateEntry(entries[0]) {
			t.Errorf("%s entry not recognized as cgate's: %v", he.Event, entries[0])
		}
	}
}

func TestInstallHooks_PreservesUnrelatedSettings(t *testing.T) {
	settings := map[string]any{
		"model": "opus",
		"env":   map[string]any{"FOO": "bar"},
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "/opt/audit log"},
					},
				},
			},
			"Stop": []any{
				map[string]any{
					"hooks": []any{
						map[string]any{"type": "command", "command": "/opt/other-tool notify"},
					},
				},
			},
		},
	}

	installHooks(settings, "/usr/local/bin/cgate")

	if settings["model"] != "opus" {
		t.Error("unrelated top-level key lost")
	}
	hooks := settings["hooks"].(map[string]any)
	if _, ok := hooks["PreToolUse"]; !ok {
		t.Error("unrelated hook event lost")
	}

	stop := hooks["Stop"].([]any)
	if len(stop) != 2 {
		t.Fatalf("Stop entries = %d, want other-tool entry plus cgate's", len(stop))
	}
	if isCgateEntry(stop[0]) {
		t.Error("other tool's entry classified as cgate's")
	}
	if !isCgateEntry(stop[1]) {
		t.Error("cgate entry not appended")
	}
}

func TestInstallHooks_Idempotent(t *testing.T) {
	settings := map[string]any{}

	installHooks(settings, "/usr/local/bin/cgate")
	installHooks(settings, "/home/alice/bin/cgate")

	hooks := settings["hooks"].(map[string]any)
	for _, he := range hookEvents {
		entries := hooks[he.Event].([]any)
		if len(entries) != 1 {
			t.Errorf("%s: %d entries after re-install, want 1", he.Event, len(entries))
		}
	}
}

func TestRemoveHooks_RoundTrip(t *testing.T) {
	settings := map[string]any{
		"model": "opus",
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"hooks": []any{
						map[string]any{"type": "command", "command": "/opt/audit log"},
					},
				},
			},
		},
	}

	installHooks(settings, "/usr/local/bin/cgate")
	removed := removeHooks(settings)

	if removed != len(hookEvents) {
		t.Errorf("removed %d entries, want %d", removed, len(hookEvents))
	}

	hooks := settings["hooks"].(map[string]any)
	for _, he := range hookEvents {
		if _, ok := hooks[he.Event]; ok {
			t.Errorf("%s entries left behind after uninstall", he.Event)
		}
	}
	if _, ok := hooks["PreToolUse"]; !ok {
		t.Error("unrelated hook event removed")
	}
	if settings["model"] != "opus" {
		t.Error("unrelated top-level key removed")
	}
}

func TestRemoveHooks_EmptyHooksMapCleanedUp(t *testing.T) {
	settings := map[string]any{}
	installHooks(settings, "/usr/local/bin/cgate")

	removeHooks(settings)

	if _, ok := settings["hooks"]; ok {
		t.Error("empty hooks map left behind")
	}
}

func TestRemoveHooks_NothingInstalled(t *testing.T) {
	settings := map[string]any{"model": "opus"}
	if removed := removeHooks(settings); removed != 0 {
		t.Errorf("removed %d entries from clean settings", removed)
	}
}
