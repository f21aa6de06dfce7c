package cooldown

import (
	"testing"
	"time"

	"github.com/theirongolddev/cgate/internal/trigger"
)

// newStores builds one store per implementation for a given policy, so the
// contract tests run against both.
func newStores(t *testing.T, policy Policy) map[string]Store {
	t.Helper()
	return map[string]Store{
		"file": NewFileStore(t.TempDir(), policy),
		"mem":  NewMemStore(policy),
	}
}

func TestStore_SuppressionWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	window := 300 * time.Second

	for name, s := range newStores(t, PolicyPerTrigger) {
		t.Run(name, func(t *testing.T) {
			if s.IsSuppressed("sess", trigger.Synthesis, window, now) {
				t.Error("suppressed before any fire")
			}

			if err := s.RecordFire("sess", trigger.Synthesis, now); err != nil {
				t.Fatalf("RecordFire: %v", err)
			}

			if !s.IsSuppressed("sess", trigger.Synthesis, window, now) {
				t.Error("not suppressed immediately after fire")
			}
			if !s.IsSuppressed("sess", trigger.Synthesis, window, now.Add(window-time.Second)) {
				t.Error("not suppressed just inside the window")
			}
			if s.IsSuppressed("sess", trigger.Synthesis, window, now.Add(window+time.Second)) {
				t.Error("still suppressed after the window elapsed")
			}
		})
	}
}

func TestStore_OverwriteResetsWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	window := 60 * time.Second

	for name, s := range newStores(t, PolicyGlobal) {
		t.Run(name, func(t *testing.T) {
			if err := s.RecordFire("sess", trigger.ContextThreshold, now); err != nil {
				t.Fatalf("RecordFire: %v", err)
			}
			// Re-fire half a window later: the marker timestamp moves.
			later := now.Add(30 * time.Second)
			if err := s.RecordFire("sess", trigger.ContextThreshold, later); err != nil {
				t.Fatalf("RecordFire: %v", err)
			}

			// 70s after the first fire but only 40s after the second.
			probe := now.Add(70 * time.Second)
			if !s.IsSuppressed("sess", trigger.ContextThreshold, window, probe) {
				t.Error("overwrite did not reset the window")
			}
		})
	}
}

func TestStore_PolicyKeying(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	window := 300 * time.Second

	t.Run("per-trigger keeps categories independent", func(t *testing.T) {
		for name, s := range newStores(t, PolicyPerTrigger) {
			t.Run(name, func(t *testing.T) {
				if err := s.RecordFire("sess", trigger.Synthesis, now); err != nil {
					t.Fatalf("RecordFire: %v", err)
				}
				if s.IsSuppressed("sess", trigger.BranchPoint, window, now) {
					t.Error("synthesis fire suppressed branch_point under per-trigger policy")
				}
			})
		}
	})

	t.Run("global suppresses every type", func(t *testing.T) {
		for name, s := range newStores(t, PolicyGlobal) {
			t.Run(name, func(t *testing.T) {
				if err := s.RecordFire("sess", trigger.ContextThreshold, now); err != nil {
					t.Fatalf("RecordFire: %v", err)
				}
				if !s.IsSuppressed("sess", trigger.Synthesis, window, now) {
					t.Error("global policy did not suppress across types")
				}
			})
		}
	})
}

func TestStore_SessionsDoNotCollide(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	window := 300 * time.Second

	for _, policy := range []Policy{PolicyGlobal, PolicyPerTrigger} {
		for name, s := range newStores(t, policy) {
			t.Run(policy.String()+"/"+name, func(t *testing.T) {
				if err := s.RecordFire("sess-a", trigger.Synthesis, now); err != nil {
					t.Fatalf("RecordFire: %v", err)
				}
				if s.IsSuppressed("sess-b", trigger.Synthesis, window, now) {
					t.Error("fire in sess-a suppressed sess-b")
				}
			})
		}
	}
}

func TestStore_SubagentScopeIsSeparate(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	window := 60 * time.Second

	for name, s := range newStores(t, PolicyGlobal) {
		t.Run(name, func(t *testing.T) {
			if err := s.RecordFire("sess/agent-1", trigger.ContextThreshold, now); err != nil {
				t.Fatalf("RecordFire: %v", err)
			}
			if s.IsSuppressed("sess", trigger.ContextThreshold, window, now) {
				t.Error("subagent fire suppressed the parent session")
			}
			if s.IsSuppressed("sess/agent-2", trigger.ContextThreshold, window, now) {
				t.Error("subagent fire suppressed a sibling agent")
			}
			if !s.IsSuppressed("sess/agent-1", trigger.ContextThreshold, window, now) {
				t.Error("subagent fire did not suppress itself")
			}
		})
	}
}

func TestStore_NonPositiveWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range newStores(t, PolicyGlobal) {
		t.Run(name, func(t *testing.T) {
			if err := s.RecordFire("sess", trigger.ContextThreshold, now); err != nil {
				t.Fatalf("RecordFire: %v", err)
			}
			if s.IsSuppressed("sess", trigger.ContextThreshold, 0, now) {
				t.Error("zero window reported suppressed")
			}
			if s.IsSuppressed("sess", trigger.ContextThreshold, -time.Second, now) {
				t.Error("negative window reported suppressed")
			}
		})
	}
}

func TestStore_Policy(t *testing.T) {
	if got := NewFileStore(t.TempDir(), PolicyPerTrigger).Policy(); got != PolicyPerTrigger {
		t.Errorf("Policy() = %v, want PolicyPerTrigger", got)
	}
	if got := NewMemStore(PolicyGlobal).Policy(); got != PolicyGlobal {
		t.Errorf("Policy() = %v, want PolicyGlobal", got)
	}
}
