package hook

import (
	"encoding/json"
	"io"
)

// Permission decisions a PreToolUse hook may return.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
	DecisionAsk   = "ask"
)

// SpecificOutput is the hookSpecificOutput payload Claude Code reads
// from a hook's stdout.
type SpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	AdditionalContext        string `json:"additionalContext,omitempty"`
	PermissionDecision       string `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// Output is the top-level JSON object a hook writes to stdout.
type Output struct {
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// ContextOutput builds an Output that injects additional context for the
// given event. Returns a zero-value Output if context is empty, which
// callers should skip writing.
func ContextOutput(event, context string) Output {
	if context == "" {
		return Output{}
	}
	return Output{
		HookSpecificOutput: &SpecificOutput{
			HookEventName:     event,
			AdditionalContext: context,
		},
	}
}

// DecisionOutput builds an Output carrying a PreToolUse permission decision.
func DecisionOutput(decision, reason string) Output {
	return Output{
		HookSpecificOutput: &SpecificOutput{
			HookEventName:            EventPreToolUse,
			PermissionDecision:       decision,
			PermissionDecisionReason: reason,
		},
	}
}

// Write encodes the output as a single JSON line on w. Empty outputs are
// skipped so hooks that have nothing to say stay silent.
func (o Output) Write(w io.Writer) error {
	if o.HookSpecificOutput == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(o)
}
