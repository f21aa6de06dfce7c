package hookio

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decision verdicts understood by the hook host.
const (
	VerdictApprove = "approve"
	VerdictBlock   = "block"
)

// Response is the single JSON object a hook command emits on stdout.
type Response struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// Approve lets the conversation stop or proceed normally.
func Approve() Response {
	return Response{Decision: VerdictApprove}
}

// Block pauses the conversation with an instruction for the assistant.
func Block(reason string) Response {
	return Response{Decision: VerdictBlock, Reason: reason}
}

// WriteResponse encodes exactly one response to w, newline-terminated.
func WriteResponse(w io.Writer, resp Response) error {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}
	return nil
}
