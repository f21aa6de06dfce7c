// Package hookio reads Claude Code hook payloads from stdin and writes
// decision objects to stdout.
package hookio

import (
	"encoding/json"
	"fmt"
	"io"
)

// Payload mirrors the JSON Claude Code pipes to hook commands. Fields are
// a union across hook events; fields a given event does not send stay
// zero, and unknown fields are ignored.
type Payload struct {
	SessionID      string `json:"session_id"`
	Cwd            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
	TranscriptPath string `json:"transcript_path"`
	StopHookActive bool   `json:"stop_hook_active"`

	// PreCompact
	TriggerType        string `json:"trigger_type"`
	CustomInstructions string `json:"custom_instructions"`

	// SubagentStop
	AgentID             string `json:"agent_id"`
	AgentTranscriptPath string `json:"agent_transcript_path"`
}

// ReadPayload decodes one payload from r.
func ReadPayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decoding hook payload: %w", err)
	}
	return p, nil
}
