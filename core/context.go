package core

import (
	"context"

	"github.com/hupe1980/agenthive/logging"
)

// HistoryScope selects which transcript view a history accessor returns.
type HistoryScope int

const (
	// AgentScope limits history to messages where the requesting agent is the
	// sender or a recipient.
	AgentScope HistoryScope = iota
	// WorkspaceScope returns every transcript entry in the workspace.
	WorkspaceScope
)

// HistoryFunc provides scoped transcript access to agent logic without
// exposing the workspace itself.
type HistoryFunc func(scope HistoryScope, includeSystem bool) []Message

// InvocationContext carries the scoped execution view for one agent turn.
// It aggregates:
//   - The ambient cancellation Context
//   - Workspace identity and roster snapshot
//   - The latest pending message addressed to the agent
//   - Scoped conversation history access
//   - The shared-plan document
//   - A response-building helper resolving recipient specifications
//
// The engine constructs a fresh InvocationContext per turn; agent logic must
// not retain it across invocations.
type InvocationContext struct {
	Context     context.Context
	WorkspaceID string
	AgentName   string
	Latest      *Message
	SharedPlan  string
	Roster      []string
	History     HistoryFunc
	Logger      logging.Logger
}

// Done mirrors context.Context's Done.
func (ic *InvocationContext) Done() <-chan struct{} { return ic.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (ic *InvocationContext) Err() error { return ic.Context.Err() }

// ConversationHistory returns the transcript view for the given scope. It is
// nil-safe so bare contexts constructed in tests do not panic.
func (ic *InvocationContext) ConversationHistory(scope HistoryScope, includeSystem bool) []Message {
	if ic.History == nil {
		return nil
	}
	return ic.History(scope, includeSystem)
}

// BuildResponse constructs a directive addressed to target, which may be an
// agent name, "USER", or "ALL". An unparseable target falls back to USER so
// logic helpers never have to handle a second error path.
func (ic *InvocationContext) BuildResponse(target, content string) *Directive {
	to, err := ParseRecipient(target)
	if err != nil {
		to = User()
	}
	return NewDirective(to, content)
}

// Peers returns the roster without the invoked agent itself.
func (ic *InvocationContext) Peers() []string {
	peers := make([]string, 0, len(ic.Roster))
	for _, n := range ic.Roster {
		if n != ic.AgentName {
			peers = append(peers, n)
		}
	}
	return peers
}
