package core

import (
	"fmt"
)

// ErrUnknownAgent is returned when a name has no definition in the registry.
var ErrUnknownAgent = fmt.Errorf("agent not registered")

// RoutingError reports an unresolvable recipient. The transcript is left
// unchanged and the send does not count as a successful delivery.
type RoutingError struct {
	WorkspaceID string
	Sender      string
	Recipient   string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("workspace %s: cannot route message from %q to %q: recipient not in roster", e.WorkspaceID, e.Sender, e.Recipient)
}

// WorkspaceDepthExceededError refuses workspace creation before any partial
// state is built.
type WorkspaceDepthExceededError struct {
	NodeID   string
	Depth    int
	MaxDepth int
}

func (e *WorkspaceDepthExceededError) Error() string {
	return fmt.Sprintf("task node %s: workspace depth %d exceeds configured maximum %d", e.NodeID, e.Depth, e.MaxDepth)
}

// AgentInvocationError wraps an adapter-level failure raised while invoking
// an agent. It is isolated per turn: the owning workspace transitions to a
// terminal error state while sibling workspaces continue unaffected.
type AgentInvocationError struct {
	WorkspaceID string
	Agent       string
	Err         error
}

func (e *AgentInvocationError) Error() string {
	return fmt.Sprintf("workspace %s: invoking agent %q failed: %v", e.WorkspaceID, e.Agent, e.Err)
}

func (e *AgentInvocationError) Unwrap() error { return e.Err }

// MalformedDirectiveError reports agent output that could not be parsed into
// a Directive. Adapters recover it locally into a best-effort plain-content
// directive; it never reaches the scheduler.
type MalformedDirectiveError struct {
	Agent string
	Raw   string
	Err   error
}

func (e *MalformedDirectiveError) Error() string {
	return fmt.Sprintf("agent %q emitted malformed directive: %v", e.Agent, e.Err)
}

func (e *MalformedDirectiveError) Unwrap() error { return e.Err }
