// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hook

// Decision is the allow/deny outcome of a handler or a chain.
type Decision int

const (
	// Allow lets the agent proceed. It is the zero value so that an
	// unset decision never blocks.
	Allow Decision = iota
	// Deny blocks the agent's action.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// PartialResult is produced by a single Handle call.
type PartialResult struct {
	Decision Decision
	// Reason explains a denial. Optional for Allow.
	Reason string
	// Context lines are passed back to the agent in order.
	Context []string
}

// Allowed returns an Allow result carrying the given context lines.
func Allowed(context ...string) PartialResult {
	return PartialResult{Decision: Allow, Context: context}
}

// Denied returns a Deny result with a reason and optional context.
func Denied(reason string, context ...string) PartialResult {
	return PartialResult{Decision: Deny, Reason: reason, Context: context}
}

// Result is the outcome of a full handler chain. Decision is Deny only
// when a terminal handler explicitly denied; Context holds every
// matching handler's context in execution order.
type Result struct {
	Decision Decision
	Reason   string
	Context  []string
	// HandlerID names the terminal handler that ended the chain, or ""
	// when no terminal handler fired.
	HandlerID string
}

// Denied reports whether the chain blocks the action.
func (r Result) Denied() bool { return r.Decision == Deny }
