package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/cgate/internal/trigger"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	entries := []Entry{
		{SessionID: "sess-a", HookEvent: "Stop", Trigger: trigger.Synthesis,
			Reason: "synthesis fired", CreatedAt: base},
		{SessionID: "sess-a", HookEvent: "Stop", Trigger: trigger.ContextThreshold,
			Percent: 82, Consumed: 165000, Capacity: 200000,
			Reason: "usage fired", CreatedAt: base.Add(time.Minute)},
		{SessionID: "sess-b", HookEvent: "PreCompact", Trigger: trigger.Precompact,
			Reason: "compaction", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := j.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d rows, want 3", len(got))
	}

	// Newest first.
	if got[0].Trigger != trigger.Precompact {
		t.Errorf("newest entry = %s, want precompact", got[0].Trigger)
	}
	if got[1].Percent != 82 || got[1].Consumed != 165000 {
		t.Errorf("usage fields not round-tripped: %+v", got[1])
	}
	if got[0].ID == "" {
		t.Error("Record did not assign an ID")
	}
	if !got[2].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got[2].CreatedAt, base)
	}
}

func TestRecentLimit(t *testing.T) {
	j := openTestJournal(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := j.Record(Entry{
			SessionID: "sess", HookEvent: "Stop", Trigger: trigger.Synthesis,
			Reason: "r", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Recent(2) returned %d rows", len(got))
	}
}

func TestCountBySession(t *testing.T) {
	j := openTestJournal(t)

	for _, sid := range []string{"a", "a", "b"} {
		if err := j.Record(Entry{SessionID: sid, HookEvent: "Stop",
			Trigger: trigger.Synthesis, Reason: "r"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	counts, err := j.CountBySession()
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if counts["a"] != 2 || counts["b"] != 1 {
		t.Errorf("counts = %v, want a:2 b:1", counts)
	}
}

func TestPrune(t *testing.T) {
	j := openTestJournal(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	old := Entry{SessionID: "sess", HookEvent: "Stop", Trigger: trigger.Synthesis,
		Reason: "old", CreatedAt: base.AddDate(0, 0, -100)}
	fresh := Entry{SessionID: "sess", HookEvent: "Stop", Trigger: trigger.BranchPoint,
		Reason: "fresh", CreatedAt: base}
	for _, e := range []Entry{old, fresh} {
		if err := j.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	removed, err := j.Prune(base.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune removed %d rows, want 1", removed)
	}

	got, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Reason != "fresh" {
		t.Errorf("surviving rows = %+v", got)
	}
}
