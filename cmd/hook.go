package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cgate/internal/config"
	"github.com/theirongolddev/cgate/internal/cooldown"
	"github.com/theirongolddev/cgate/internal/engine"
	"github.com/theirongolddev/cgate/internal/hookio"
	"github.com/theirongolddev/cgate/internal/journal"
	"github.com/theirongolddev/cgate/internal/transcript"
	"github.com/theirongolddev/cgate/internal/trigger"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Hook entrypoints invoked by Claude Code",
	Long: "Reads one hook payload from stdin and writes one decision to stdout.\n" +
		"Diagnostics go to stderr. Always exits 0: a hook fault must never\n" +
		"break the host conversation.",
}

var hookStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop hook: usage gate plus semantic gate",
	RunE: func(_ *cobra.Command, _ []string) error {
		runHook(engine.KindStop, "Stop")
		return nil
	},
}

var hookSubagentStopCmd = &cobra.Command{
	Use:   "subagent-stop",
	Short: "SubagentStop hook: usage gate only",
	RunE: func(_ *cobra.Command, _ []string) error {
		runHook(engine.KindSubagentStop, "SubagentStop")
		return nil
	},
}

var hookPrecompactCmd = &cobra.Command{
	Use:   "precompact",
	Short: "PreCompact hook: always blocks with the save-now instruction",
	RunE: func(_ *cobra.Command, _ []string) error {
		runHook(engine.KindPrecompact, "PreCompact")
		return nil
	},
}

func init() {
	hookCmd.AddCommand(hookStopCmd, hookSubagentStopCmd, hookPrecompactCmd)
	rootCmd.AddCommand(hookCmd)
}

// hookLogger builds the stderr JSON logger for hook invocations.
// Stdout is reserved for the decision object.
func hookLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("CGATE_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// runHook executes one hook invocation end to end. It never returns an
// error: every internal fault degrades to a decision (allow when
// uncertain, block for precompact) so the host is never left hanging.
func runHook(kind engine.Kind, eventName string) {
	logger := hookLogger()

	decision := evaluateHook(kind, eventName, logger)

	resp := hookio.Approve()
	if decision.Block {
		resp = hookio.Block(decision.Reason)
	}
	if err := hookio.WriteResponse(os.Stdout, resp); err != nil {
		logger.Error("writing decision", "error", err)
	}
}

// evaluateHook decodes the payload, derives engine inputs from the
// transcript tail, and runs the decision engine.
func evaluateHook(kind engine.Kind, eventName string, logger *slog.Logger) engine.Decision {
	payload, err := hookio.ReadPayload(os.Stdin)
	if err != nil || payload.SessionID == "" {
		if err != nil {
			logger.Warn("reading payload", "error", err)
		}
		// Missing input resolves to allow, except under precompact:
		// that path blocks even blind, because this is the last
		// chance to save before truncation.
		if kind == engine.KindPrecompact {
			return precompactFallback()
		}
		return engine.Decision{}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("loading config, using defaults", "error", err)
	}

	// Subagents read their own transcript and cool down under a
	// parent-qualified scope so their markers never collide with the
	// parent session's.
	transcriptPath := payload.TranscriptPath
	sessionScope := payload.SessionID
	if kind == engine.KindSubagentStop && payload.AgentID != "" {
		sessionScope = payload.SessionID + "/" + payload.AgentID
		if payload.AgentTranscriptPath != "" {
			transcriptPath = payload.AgentTranscriptPath
		}
	}

	var state transcript.TailState
	if transcriptPath != "" {
		state, err = transcript.ReadTail(transcriptPath)
		if err != nil {
			logger.Warn("reading transcript tail", "path", transcriptPath, "error", err)
		}
	}

	eng := engine.New(engine.Config{
		Capacity:                 config.ResolveCapacity(cfg, state.Model),
		ThresholdPercent:         cfg.Usage.ThresholdPercent,
		SubagentThresholdPercent: cfg.Usage.SubagentThresholdPercent,
		UsageWindow:              time.Duration(cfg.Cooldown.UsageWindowSecs) * time.Second,
		PatternWindow:            time.Duration(cfg.Cooldown.PatternWindowSecs) * time.Second,
		SaveCommand:              cfg.General.SaveCommand,
	},
		cooldown.NewFileStore(config.MarkersDir(), cooldown.PolicyGlobal),
		cooldown.NewFileStore(config.MarkersDir(), cooldown.PolicyPerTrigger),
		logger,
	)

	decision := eng.Evaluate(engine.Invocation{
		SessionID:      sessionScope,
		Kind:           kind,
		Sample:         state.Sample,
		Utterance:      state.LastText,
		StopHookActive: payload.StopHookActive,
	})

	logger.Debug("decision",
		"event", eventName,
		"session", sessionScope,
		"block", decision.Block,
		"trigger", string(decision.Trigger),
	)

	if decision.Block {
		recordFiring(logger, cfg, eventName, sessionScope, decision, state)
	}
	return decision
}

// precompactFallback is the blind precompact block used when the
// payload itself could not be read.
func precompactFallback() engine.Decision {
	cfg, _ := config.Load()
	eng := engine.New(engine.Config{SaveCommand: cfg.General.SaveCommand},
		cooldown.NewMemStore(cooldown.PolicyGlobal),
		cooldown.NewMemStore(cooldown.PolicyPerTrigger),
		nil,
	)
	return eng.Evaluate(engine.Invocation{Kind: engine.KindPrecompact})
}

// recordFiring appends the block to the journal. Best-effort: a journal
// failure is logged and the decision stands.
func recordFiring(logger *slog.Logger, cfg config.Config, eventName, sessionScope string, d engine.Decision, state transcript.TailState) {
	j, err := journal.Open(config.JournalPath())
	if err != nil {
		logger.Warn("opening journal", "error", err)
		return
	}
	defer func() { _ = j.Close() }()

	entry := journal.Entry{
		SessionID: sessionScope,
		HookEvent: eventName,
		Trigger:   d.Trigger,
		Reason:    d.Reason,
	}
	if d.Trigger == trigger.ContextThreshold && state.Sample != nil {
		entry.Capacity = config.ResolveCapacity(cfg, state.Model)
		entry.Consumed = state.Sample.Consumed()
		entry.Percent = state.Sample.Percent(entry.Capacity)
	}

	if err := j.Record(entry); err != nil {
		logger.Warn("recording firing", "error", err)
	}
}
