// Package engine decides whether a conversation may stop or must first
// save a checkpoint.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/theirongolddev/cgate/internal/cli"
	"github.com/theirongolddev/cgate/internal/cooldown"
	"github.com/theirongolddev/cgate/internal/trigger"
	"github.com/theirongolddev/cgate/internal/usage"
)

// Kind identifies the lifecycle point that fired the invocation.
type Kind int

const (
	// KindStop fires when the main conversation is about to stop.
	KindStop Kind = iota
	// KindSubagentStop fires when a subagent task is about to stop.
	KindSubagentStop
	// KindPrecompact fires right before compaction truncates older turns.
	KindPrecompact
)

// Invocation carries everything a single hook call provides.
type Invocation struct {
	SessionID      string
	Kind           Kind
	Sample         *usage.Sample // nil when no usage data was found
	Utterance      string        // latest assistant text, empty when none
	StopHookActive bool          // host re-invoked the hook after a block
}

// Decision is the engine's verdict for one invocation. Decisions are
// produced fresh each time and never read back.
type Decision struct {
	Block   bool
	Trigger trigger.Type
	Reason  string
}

// Config holds the thresholds and windows the engine applies.
type Config struct {
	Capacity                 int64
	ThresholdPercent         int
	SubagentThresholdPercent int
	UsageWindow              time.Duration
	PatternWindow            time.Duration
	SaveCommand              string
}

// Engine composes the usage gate, the semantic gate, and the cooldown
// stores into one decision per invocation.
type Engine struct {
	cfg         Config
	usageGate   cooldown.Store
	patternGate cooldown.Store
	log         *slog.Logger

	// Now is the time source, replaceable in tests.
	Now func() time.Time
}

// New builds an engine. usageGate carries the global per-session policy,
// patternGate the per-trigger policy. logger may be nil.
func New(cfg Config, usageGate, patternGate cooldown.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:         cfg,
		usageGate:   usageGate,
		patternGate: patternGate,
		log:         logger,
		Now:         time.Now,
	}
}

// Evaluate runs the decision rules for one invocation. Internal faults
// degrade toward allow; the precompact path blocks no matter what.
func (e *Engine) Evaluate(inv Invocation) Decision {
	if inv.Kind == KindPrecompact {
		return Decision{
			Block:   true,
			Trigger: trigger.Precompact,
			Reason: fmt.Sprintf(
				"Context compaction is imminent. Run %s now: anything not checkpointed may be lost when older turns are dropped. [trigger: precompact]",
				e.saveCommand()),
		}
	}

	// The host sets stop_hook_active when re-invoking after a block; a
	// second block here would loop forever.
	if inv.StopHookActive {
		return Decision{}
	}

	if inv.Sample == nil && inv.Utterance == "" {
		return Decision{}
	}

	now := e.Now()

	// Usage firings take precedence over text firings: one instruction
	// per invocation, and running out of context is the more urgent one.
	if d, ok := e.usagePath(inv, now); ok {
		return d
	}
	if inv.Kind == KindStop {
		if d, ok := e.patternPath(inv, now); ok {
			return d
		}
	}

	return Decision{}
}

// usagePath applies the context-threshold gate under the global cooldown
// policy.
func (e *Engine) usagePath(inv Invocation, now time.Time) (Decision, bool) {
	if inv.Sample == nil {
		return Decision{}, false
	}

	threshold := e.cfg.ThresholdPercent
	if inv.Kind == KindSubagentStop {
		threshold = e.cfg.SubagentThresholdPercent
	}
	if threshold <= 0 {
		// Threshold 0 disables the gate.
		return Decision{}, false
	}

	pct := inv.Sample.Percent(e.cfg.Capacity)
	if pct < threshold {
		return Decision{}, false
	}

	if e.usageGate.IsSuppressed(inv.SessionID, trigger.ContextThreshold, e.cfg.UsageWindow, now) {
		e.log.Debug("usage gate suppressed", "session", inv.SessionID, "percent", pct)
		return Decision{}, false
	}

	// A failed marker write only means the gate may re-fire sooner than
	// intended; the block still goes out.
	if err := e.usageGate.RecordFire(inv.SessionID, trigger.ContextThreshold, now); err != nil {
		e.log.Warn("recording usage fire", "error", err)
	}

	return Decision{
		Block:   true,
		Trigger: trigger.ContextThreshold,
		Reason: fmt.Sprintf(
			"Context is at %d%% (%s of %s tokens). Run %s to save a checkpoint before stopping. [trigger: context_threshold]",
			pct, cli.FormatNumber(inv.Sample.Consumed()), cli.FormatNumber(e.cfg.Capacity), e.saveCommand()),
	}, true
}

// patternPath applies the semantic gate under the per-trigger cooldown
// policy.
func (e *Engine) patternPath(inv Invocation, now time.Time) (Decision, bool) {
	t, ok := trigger.Classify(inv.Utterance)
	if !ok {
		return Decision{}, false
	}

	if e.patternGate.IsSuppressed(inv.SessionID, t, e.cfg.PatternWindow, now) {
		e.log.Debug("semantic gate suppressed", "session", inv.SessionID, "category", string(t))
		return Decision{}, false
	}

	if err := e.patternGate.RecordFire(inv.SessionID, t, now); err != nil {
		e.log.Warn("recording semantic fire", "error", err)
	}

	return Decision{
		Block:   true,
		Trigger: t,
		Reason: fmt.Sprintf("%s Run %s to save a checkpoint before stopping. [trigger: %s]",
			t.Description(), e.saveCommand(), t),
	}, true
}

func (e *Engine) saveCommand() string {
	if e.cfg.SaveCommand == "" {
		return "/checkpoint"
	}
	return e.cfg.SaveCommand
}
