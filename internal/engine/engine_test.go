package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/cgate/internal/cooldown"
	"github.com/theirongolddev/cgate/internal/trigger"
	"github.com/theirongolddev/cgate/internal/usage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := Config{
		Capacity:                 200000,
		ThresholdPercent:         80,
		SubagentThresholdPercent: 70,
		UsageWindow:              60 * time.Second,
		PatternWindow:            300 * time.Second,
		SaveCommand:              "/checkpoint",
	}
	e := New(cfg,
		cooldown.NewMemStore(cooldown.PolicyGlobal),
		cooldown.NewMemStore(cooldown.PolicyPerTrigger),
		nil,
	)
	e.Now = func() time.Time {
		return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	}
	return e
}

// highSample is 82% of the default 200000 capacity.
func highSample() *usage.Sample {
	return &usage.Sample{
		InputTokens:         150000,
		CacheReadTokens:     10000,
		CacheCreationTokens: 5000,
	}
}

func TestEvaluate_NoInputsAllows(t *testing.T) {
	e := newTestEngine(t)

	d := e.Evaluate(Invocation{SessionID: "sess", Kind: KindStop})
	if d.Block {
		t.Errorf("no inputs blocked: %+v", d)
	}
}

func TestEvaluate_UsageThreshold(t *testing.T) {
	e := newTestEngine(t)
	inv := Invocation{SessionID: "sess", Kind: KindStop, Sample: highSample()}

	d := e.Evaluate(inv)
	if !d.Block {
		t.Fatal("82% with threshold 80 did not block")
	}
	if d.Trigger != trigger.ContextThreshold {
		t.Errorf("Trigger = %s, want context_threshold", d.Trigger)
	}
	if !strings.Contains(d.Reason, "82%") {
		t.Errorf("Reason %q does not mention the percent", d.Reason)
	}
	if !strings.Contains(d.Reason, "165,000 of 200,000") {
		t.Errorf("Reason %q does not report consumed and capacity", d.Reason)
	}
	if !strings.Contains(d.Reason, "/checkpoint") {
		t.Errorf("Reason %q does not name the save command", d.Reason)
	}

	// Same session inside the window: suppressed.
	if d := e.Evaluate(inv); d.Block {
		t.Errorf("second invocation inside the window blocked: %+v", d)
	}

	// Past the window it fires again.
	e.Now = func() time.Time {
		return time.Date(2025, 6, 1, 10, 1, 1, 0, time.UTC)
	}
	if d := e.Evaluate(inv); !d.Block {
		t.Error("invocation after the window elapsed did not block")
	}
}

func TestEvaluate_UsageBelowThresholdAllows(t *testing.T) {
	e := newTestEngine(t)

	// 79%.
	d := e.Evaluate(Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Sample:    &usage.Sample{InputTokens: 158000},
	})
	if d.Block {
		t.Errorf("79%% blocked: %+v", d)
	}
}

func TestEvaluate_UsagePrecedenceOverText(t *testing.T) {
	e := newTestEngine(t)

	d := e.Evaluate(Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Sample:    highSample(),
		Utterance: "In conclusion, the refactor is complete.",
	})
	if !d.Block || d.Trigger != trigger.ContextThreshold {
		t.Errorf("decision = %+v, want usage block to win over synthesis", d)
	}
}

func TestEvaluate_SuppressedUsageFallsThroughToText(t *testing.T) {
	e := newTestEngine(t)
	inv := Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Sample:    highSample(),
		Utterance: "In conclusion, the refactor is complete.",
	}

	if d := e.Evaluate(inv); d.Trigger != trigger.ContextThreshold {
		t.Fatalf("first decision = %+v, want context_threshold", d)
	}

	// Usage is now globally suppressed; the semantic gate still gets its
	// turn on the next invocation.
	d := e.Evaluate(inv)
	if !d.Block || d.Trigger != trigger.Synthesis {
		t.Errorf("decision = %+v, want synthesis after usage suppression", d)
	}
}

func TestEvaluate_SemanticFireAndSuppress(t *testing.T) {
	e := newTestEngine(t)
	inv := Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Utterance: "In conclusion, the refactor is complete.",
	}

	d := e.Evaluate(inv)
	if !d.Block || d.Trigger != trigger.Synthesis {
		t.Fatalf("decision = %+v, want synthesis block", d)
	}
	if !strings.Contains(d.Reason, "[trigger: synthesis]") {
		t.Errorf("Reason %q does not tag the trigger type", d.Reason)
	}

	// Same category inside the per-type window: suppressed.
	if d := e.Evaluate(inv); d.Block {
		t.Errorf("repeat synthesis inside window blocked: %+v", d)
	}

	// A different category is independent.
	d = e.Evaluate(Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Utterance: "We could either cache results or recompute them on demand.",
	})
	if !d.Block || d.Trigger != trigger.BranchPoint {
		t.Errorf("decision = %+v, want branch_point despite synthesis marker", d)
	}

	// Past the per-type window synthesis fires again.
	e.Now = func() time.Time {
		return time.Date(2025, 6, 1, 10, 5, 1, 0, time.UTC)
	}
	if d := e.Evaluate(inv); !d.Block {
		t.Error("synthesis after window elapsed did not block")
	}
}

func TestEvaluate_SubagentThreshold(t *testing.T) {
	e := newTestEngine(t)

	// 75%: above the subagent threshold (70), below the main one (80).
	sample := &usage.Sample{InputTokens: 150000}

	d := e.Evaluate(Invocation{SessionID: "sess/agent-1", Kind: KindSubagentStop, Sample: sample})
	if !d.Block {
		t.Error("75% subagent stop did not block at threshold 70")
	}

	d = e.Evaluate(Invocation{SessionID: "other", Kind: KindStop, Sample: sample})
	if d.Block {
		t.Errorf("75%% main stop blocked at threshold 80: %+v", d)
	}
}

func TestEvaluate_SubagentIgnoresUtterance(t *testing.T) {
	e := newTestEngine(t)

	d := e.Evaluate(Invocation{
		SessionID: "sess/agent-1",
		Kind:      KindSubagentStop,
		Utterance: "In conclusion, the subtask is done.",
	})
	if d.Block {
		t.Errorf("subagent stop blocked on text: %+v", d)
	}
}

func TestEvaluate_PrecompactAlwaysBlocks(t *testing.T) {
	e := newTestEngine(t)
	now := e.Now()

	// Saturate both gates first; precompact must not care.
	if err := e.usageGate.RecordFire("sess", trigger.ContextThreshold, now); err != nil {
		t.Fatal(err)
	}
	if err := e.patternGate.RecordFire("sess", trigger.Precompact, now); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		d := e.Evaluate(Invocation{SessionID: "sess", Kind: KindPrecompact})
		if !d.Block || d.Trigger != trigger.Precompact {
			t.Fatalf("precompact decision %d = %+v, want unconditional block", i, d)
		}
		if !strings.Contains(d.Reason, "[trigger: precompact]") {
			t.Errorf("Reason %q does not tag precompact", d.Reason)
		}
	}
}

func TestEvaluate_StopHookActiveAllows(t *testing.T) {
	e := newTestEngine(t)

	d := e.Evaluate(Invocation{
		SessionID:      "sess",
		Kind:           KindStop,
		Sample:         &usage.Sample{InputTokens: 198000}, // 99%
		Utterance:      "In conclusion, everything is done.",
		StopHookActive: true,
	})
	if d.Block {
		t.Errorf("stop_hook_active invocation blocked: %+v", d)
	}
}

// failingStore reports every write as failed.
type failingStore struct {
	*cooldown.MemStore
}

func (failingStore) RecordFire(string, trigger.Type, time.Time) error {
	return errors.New("marker dir not writable")
}

func TestEvaluate_RecordFailureStillBlocks(t *testing.T) {
	cfg := Config{
		Capacity:         200000,
		ThresholdPercent: 80,
		UsageWindow:      60 * time.Second,
		PatternWindow:    300 * time.Second,
		SaveCommand:      "/checkpoint",
	}
	e := New(cfg,
		failingStore{cooldown.NewMemStore(cooldown.PolicyGlobal)},
		failingStore{cooldown.NewMemStore(cooldown.PolicyPerTrigger)},
		nil,
	)

	d := e.Evaluate(Invocation{SessionID: "sess", Kind: KindStop, Sample: highSample()})
	if !d.Block {
		t.Error("storage failure suppressed a legitimate usage block")
	}

	d = e.Evaluate(Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Utterance: "In conclusion, the refactor is complete.",
	})
	if !d.Block {
		t.Error("storage failure suppressed a legitimate semantic block")
	}
}

func TestEvaluate_MetaUtteranceAllows(t *testing.T) {
	e := newTestEngine(t)

	d := e.Evaluate(Invocation{
		SessionID: "sess",
		Kind:      KindStop,
		Utterance: "The cooldown detector fired a block trigger during testing",
	})
	if d.Block {
		t.Errorf("meta-discussion utterance blocked: %+v", d)
	}
}
