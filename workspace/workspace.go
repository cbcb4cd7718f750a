package workspace

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// State describes where a workspace is in its lifecycle.
type State string

const (
	// StatePending means the workspace exists but no scheduler drives it yet.
	StatePending State = "PENDING"
	// StateRunning means a scheduler is actively granting turns.
	StateRunning State = "RUNNING"
	// StateTerminated means the workspace reached a terminal state gracefully.
	StateTerminated State = "TERMINATED"
	// StateFailed means an agent invocation error ended the run.
	StateFailed State = "FAILED"
)

// TerminationReason explains why a workspace stopped executing.
type TerminationReason string

const (
	// ReasonMaxTurnsReached is set once the per-workspace turn counter hits
	// the configured budget; checked before granting a new turn.
	ReasonMaxTurnsReached TerminationReason = "max_turns_reached"
	// ReasonMaxCyclesReached is set once the configured cycle budget is spent.
	ReasonMaxCyclesReached TerminationReason = "max_cycles_reached"
	// ReasonUserReached applies when a directive resolved to USER and no
	// further pending deliveries remain.
	ReasonUserReached TerminationReason = "user_reached"
	// ReasonExplicitDoneMarker applies when agent content carried the
	// configured out-of-band completion marker.
	ReasonExplicitDoneMarker TerminationReason = "explicit_done_marker"
	// ReasonQueueDrained applies when no pending deliveries remain and none
	// will be generated.
	ReasonQueueDrained TerminationReason = "queue_drained"
)

// Status is the lifecycle snapshot of a workspace.
type Status struct {
	State  State
	Reason TerminationReason
	Err    error
}

// Terminal reports whether the workspace will receive no further turns.
func (s Status) Terminal() bool { return s.State == StateTerminated || s.State == StateFailed }

// CompletionStatus is the caller-facing run summary.
type CompletionStatus struct {
	StatusMessage string `json:"status_message"`
	TotalMessages int    `json:"total_messages"`
}

// Workspace is an isolated routing domain: a transcript, an agent roster, a
// position in the workspace tree and a shared-plan document. All mutation
// happens under a single workspace-scoped lock; transcript entries are
// immutable once appended.
type Workspace struct {
	id          string
	name        string
	description string
	parentID    string
	depth       int
	threadID    string
	created     time.Time

	mu          sync.RWMutex
	agents      map[string]core.AgentBinding
	rosterOrder []string
	transcript  []core.Message
	sharedPlan  string
	turnCounts  map[string]int
	totalTurns  int
	status      Status

	router *Router
	logger logging.Logger
}

func newWorkspace(id, name, description, parentID string, depth int, threadID string, logger logging.Logger) *Workspace {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	ws := &Workspace{
		id:          id,
		name:        name,
		description: description,
		parentID:    parentID,
		depth:       depth,
		threadID:    threadID,
		created:     time.Now().UTC(),
		agents:      make(map[string]core.AgentBinding),
		turnCounts:  make(map[string]int),
		status:      Status{State: StatePending},
		logger:      logger,
	}
	ws.router = &Router{ws: ws, logger: logger}
	return ws
}

// ID returns the workspace identifier.
func (w *Workspace) ID() string { return w.id }

// Name returns the workspace name (the owning task node's id).
func (w *Workspace) Name() string { return w.name }

// Description returns the workspace description.
func (w *Workspace) Description() string { return w.description }

// ParentID returns the parent workspace id, empty for roots.
func (w *Workspace) ParentID() string { return w.parentID }

// Depth returns the workspace's depth in the tree; roots have depth 0.
func (w *Workspace) Depth() int { return w.depth }

// ThreadID returns the conversation thread identifier stamped on routed
// messages.
func (w *Workspace) ThreadID() string { return w.threadID }

// Router returns the workspace's message router.
func (w *Workspace) Router() *Router { return w.router }

// Roster returns the agent names in registration order.
func (w *Workspace) Roster() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.rosterOrder))
	copy(out, w.rosterOrder)
	return out
}

// Binding returns the workspace-scoped binding instance for an agent name.
func (w *Workspace) Binding(name string) (core.AgentBinding, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.agents[name]
	return b, ok
}

// HasAgent reports whether the name is part of the roster.
func (w *Workspace) HasAgent(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.agents[name]
	return ok
}

func (w *Workspace) bindAgent(name string, binding core.AgentBinding) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.agents[name]; exists {
		return fmt.Errorf("workspace %s: agent %q already bound", w.id, name)
	}
	w.agents[name] = binding
	w.rosterOrder = append(w.rosterOrder, name)
	return nil
}

// release drops the roster and transcript, freeing workspace-scoped agent
// instances and their conversational state.
func (w *Workspace) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.agents = make(map[string]core.AgentBinding)
	w.rosterOrder = nil
	w.transcript = nil
	w.sharedPlan = ""
}

// Transcript returns a defensive copy of the full message log.
func (w *Workspace) Transcript() []core.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]core.Message, len(w.transcript))
	copy(out, w.transcript)
	return out
}

// TranscriptLen returns the number of appended messages.
func (w *Workspace) TranscriptLen() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.transcript)
}

// TranscriptFrom returns a copy of the messages appended at or after index
// start. The scheduler uses it to discover deliveries it has not consumed.
func (w *Workspace) TranscriptFrom(start int) []core.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if start < 0 {
		start = 0
	}
	if start >= len(w.transcript) {
		return nil
	}
	out := make([]core.Message, len(w.transcript)-start)
	copy(out, w.transcript[start:])
	return out
}

// History returns the transcript view for one requesting agent. AgentScope
// limits entries to those the agent sent or received; WorkspaceScope returns
// everything. System markers (bracketed content such as "[startup]") are
// filtered unless includeSystem is set.
func (w *Workspace) History(agent string, scope core.HistoryScope, includeSystem bool) []core.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]core.Message, 0, len(w.transcript))
	for _, m := range w.transcript {
		if !includeSystem && m.IsSystem() {
			continue
		}
		if scope == core.AgentScope && !m.Involves(agent) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SharedPlan returns the shared-plan document.
func (w *Workspace) SharedPlan() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sharedPlan
}

// SetSharedPlan replaces the shared-plan document. Any agent may write it;
// restricting writers to coordinator roles is protocol convention, not
// enforced here.
func (w *Workspace) SetSharedPlan(plan string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sharedPlan = plan
}

// TurnCount returns the number of turns granted to one agent.
func (w *Workspace) TurnCount(agent string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.turnCounts[agent]
}

// TotalTurns returns the per-workspace turn counter.
func (w *Workspace) TotalTurns() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.totalTurns
}

// IncrementTurn counts one agent invocation against both the per-agent and
// the per-workspace counter, returning the new values.
func (w *Workspace) IncrementTurn(agent string) (agentTurns, workspaceTurns int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turnCounts[agent]++
	w.totalTurns++
	return w.turnCounts[agent], w.totalTurns
}

// Status returns the current lifecycle snapshot.
func (w *Workspace) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// MarkRunning transitions PENDING -> RUNNING. Terminal states are sticky.
func (w *Workspace) MarkRunning() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status.Terminal() {
		return
	}
	w.status = Status{State: StateRunning}
}

// MarkTerminated records a graceful terminal state with the given reason.
func (w *Workspace) MarkTerminated(reason TerminationReason) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status.Terminal() {
		return
	}
	w.status = Status{State: StateTerminated, Reason: reason}
}

// MarkFailed records a terminal error state.
func (w *Workspace) MarkFailed(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status.Terminal() {
		return
	}
	w.status = Status{State: StateFailed, Err: err}
}

// CompletionStatus summarizes the run for callers: a human-readable status
// message plus the transcript size.
func (w *Workspace) CompletionStatus() CompletionStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var msg string
	switch w.status.State {
	case StatePending:
		msg = "workspace pending execution"
	case StateRunning:
		msg = "workspace running"
	case StateTerminated:
		msg = fmt.Sprintf("workspace terminated (%s) after %d turns", w.status.Reason, w.totalTurns)
	case StateFailed:
		msg = fmt.Sprintf("workspace failed after %d turns: %v", w.totalTurns, w.status.Err)
	}
	return CompletionStatus{StatusMessage: msg, TotalMessages: len(w.transcript)}
}
