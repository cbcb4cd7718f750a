package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/workspace"
)

// delivery is one pending invocation: a transcript message awaiting
// consumption by the addressed agent.
type delivery struct {
	agent string
	msg   core.Message
}

// runState tracks scheduler progress for one workspace across Run calls.
// Guarded by the engine mutex for lookup; each workspace is driven by at most
// one goroutine at a time so the fields themselves need no lock.
type runState struct {
	cursor     int        // transcript index up to which deliveries were absorbed
	queue      []delivery // pending deliveries, oldest first
	cycles     int        // completed drain passes
	batchLeft  int        // turns remaining in the current cycle
	lastToUser bool       // last routed directive resolved to USER
}

// absorb scans transcript entries appended since the last pass and enqueues
// those addressed to a roster agent. Messages to USER are final output, not
// deliveries.
func (st *runState) absorb(ws *workspace.Workspace) {
	for _, msg := range ws.TranscriptFrom(st.cursor) {
		st.cursor++
		if msg.To.Kind != core.RecipientSingle {
			continue
		}
		name := msg.To.Names[0]
		if !ws.HasAgent(name) {
			continue
		}
		st.queue = append(st.queue, delivery{agent: name, msg: msg})
	}
}

// Run drives a single workspace to a terminal state. Turns execute strictly
// sequentially: one agent invocation completes, including any network wait it
// performs, before the next turn is granted. Budgets are cooperative and
// checked at turn boundaries only.
//
// Limit precedence when several trip in the same turn: the workspace-level
// turn budget is checked first, then the cycle budget.
func (e *Engine) Run(ctx context.Context, workspaceID string) error {
	ws, ok := e.manager.Get(workspaceID)
	if !ok {
		return fmt.Errorf("workspace %q not found", workspaceID)
	}
	if ws.Status().Terminal() {
		return nil
	}

	st := e.runStateFor(workspaceID)
	ws.MarkRunning()
	start := time.Now()
	logger := e.logger

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		st.absorb(ws)

		if len(st.queue) == 0 {
			reason := workspace.ReasonQueueDrained
			if st.lastToUser {
				reason = workspace.ReasonUserReached
			}
			ws.MarkTerminated(reason)
			break
		}

		// Workspace-level turn budget, checked before granting a turn.
		if e.config.MaxAgentTurns > 0 && ws.TotalTurns() >= e.config.MaxAgentTurns {
			ws.MarkTerminated(workspace.ReasonMaxTurnsReached)
			break
		}

		if st.batchLeft == 0 {
			if e.config.MaxCycles > 0 && st.cycles >= e.config.MaxCycles {
				ws.MarkTerminated(workspace.ReasonMaxCyclesReached)
				break
			}
			st.cycles++
			st.batchLeft = len(st.queue)
		}

		d := st.queue[0]
		st.queue = st.queue[1:]
		st.batchLeft--
		st.lastToUser = false

		binding, ok := ws.Binding(d.agent)
		if !ok {
			// Roster changed underneath us (workspace released); drop the turn.
			logger.Warn("pending delivery for unbound agent dropped", "workspace_id", ws.ID(), "agent", d.agent)
			continue
		}

		agentTurns, wsTurns := ws.IncrementTurn(d.agent)
		turnStart := time.Now()

		directive, err := e.invoke(ctx, ws, binding, d)
		if err != nil {
			aerr := &core.AgentInvocationError{WorkspaceID: ws.ID(), Agent: d.agent, Err: err}
			ws.MarkFailed(aerr)
			logger.Error("agent invocation failed", "workspace_id", ws.ID(), "agent", d.agent, "turn", wsTurns, "error", err)
			return aerr
		}

		logger.Debug("agent turn completed", "workspace_id", ws.ID(), "agent", d.agent, "agent_turns", agentTurns, "workspace_turns", wsTurns, "duration", time.Since(turnStart))

		if directive == nil {
			// Silence: no message emitted, the turn is still counted.
			continue
		}
		if directive.Terminate {
			ws.MarkTerminated(workspace.ReasonExplicitDoneMarker)
			break
		}

		if _, err := ws.Router().Route(d.agent, directive.Recipient, directive.Content); err != nil {
			// Contained at the turn boundary: the transcript is unchanged and
			// the workspace continues with its remaining deliveries.
			logger.Warn("directive rejected by router", "workspace_id", ws.ID(), "agent", d.agent, "recipient", directive.Recipient.String(), "error", err)
			continue
		}

		if e.config.DoneMarker != "" && strings.Contains(directive.Content, e.config.DoneMarker) {
			ws.MarkTerminated(workspace.ReasonExplicitDoneMarker)
			break
		}

		st.lastToUser = directive.Recipient.IsUser()
	}

	status := ws.Status()
	logger.Info("workspace run finished", "workspace_id", ws.ID(), "state", string(status.State), "reason", string(status.Reason), "turns", ws.TotalTurns(), "duration", time.Since(start))
	return nil
}

// invoke executes one agent turn through the binding's capability interface.
// Panics in agent logic are converted to errors so a misbehaving binding
// cannot take down the fleet scheduler.
func (e *Engine) invoke(ctx context.Context, ws *workspace.Workspace, binding core.AgentBinding, d delivery) (directive *core.Directive, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in agent logic: %v", r)
		}
	}()

	msg := d.msg
	ictx := &core.InvocationContext{
		Context:     ctx,
		WorkspaceID: ws.ID(),
		AgentName:   d.agent,
		Latest:      &msg,
		SharedPlan:  ws.SharedPlan(),
		Roster:      ws.Roster(),
		History: func(scope core.HistoryScope, includeSystem bool) []core.Message {
			return ws.History(d.agent, scope, includeSystem)
		},
		Logger: e.logger,
	}

	return binding.Invoke(ictx)
}
