package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/workspace"
)

type scriptBinding struct {
	name string
	fn   func(ictx *core.InvocationContext) (*core.Directive, error)
}

func (b *scriptBinding) Name() string { return b.name }
func (b *scriptBinding) Invoke(ictx *core.InvocationContext) (*core.Directive, error) {
	return b.fn(ictx)
}

// register adds a scripted agent whose turns are produced by fn. The same fn
// is shared across workspace instances so tests can count invocations.
func register(t *testing.T, r *core.Registry, name string, fn func(ictx *core.InvocationContext) (*core.Directive, error)) {
	t.Helper()
	require.NoError(t, r.Register(core.Definition{
		Name: name,
		New:  func() core.AgentBinding { return &scriptBinding{name: name, fn: fn} },
	}))
}

func replyTo(target, content string) func(ictx *core.InvocationContext) (*core.Directive, error) {
	return func(ictx *core.InvocationContext) (*core.Directive, error) {
		return ictx.BuildResponse(target, content), nil
	}
}

func newTestEngine(r *core.Registry, optFns ...func(o *Options)) (*Engine, *workspace.Manager) {
	m := workspace.NewManager(r)
	return New(m, optFns...), m
}

func seed(t *testing.T, ws *workspace.Workspace, target, content string) {
	t.Helper()
	_, err := ws.Router().Route(core.UserName, core.Single(target), content)
	require.NoError(t, err)
}

func TestRun_PingPongStopsAtTurnBudget(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", replyTo("B", "ping"))
	register(t, r, "B", replyTo("A", "pong"))

	e, m := newTestEngine(r, func(o *Options) {
		o.Config.MaxAgentTurns = 4
	})
	ws, err := m.Create(core.NewTaskTreeNode("rally", "ping pong", "A", "B"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "serve")

	require.NoError(t, e.Run(context.Background(), ws.ID()))

	status := ws.Status()
	assert.Equal(t, workspace.StateTerminated, status.State)
	assert.Equal(t, workspace.ReasonMaxTurnsReached, status.Reason)
	assert.Equal(t, 4, ws.TotalTurns())
	assert.Equal(t, 2, ws.TurnCount("A"))
	assert.Equal(t, 2, ws.TurnCount("B"))
}

func TestRun_UnrouteableDirectiveIsContained(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", replyTo("Ghost", "anyone there?"))

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("solo", "one agent", "A"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "go")

	require.NoError(t, e.Run(context.Background(), ws.ID()))

	// The rejected directive left the transcript untouched and the run ended
	// gracefully with nothing left to deliver.
	status := ws.Status()
	assert.Equal(t, workspace.StateTerminated, status.State)
	assert.Equal(t, workspace.ReasonQueueDrained, status.Reason)
	assert.Equal(t, 1, ws.TranscriptLen())
	assert.Equal(t, 1, ws.TotalTurns())
}

func TestRun_BroadcastFanOut(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "Lead", func(ictx *core.InvocationContext) (*core.Directive, error) {
		if ictx.Latest != nil && ictx.Latest.From == core.UserName {
			return core.NewDirective(core.All(), "status check"), nil
		}
		return nil, nil
	})
	for _, name := range []string{"B", "C", "D"} {
		register(t, r, name, replyTo("USER", "all good"))
	}

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("team", "standup", "Lead", "B", "C", "D"), "")
	require.NoError(t, err)
	seed(t, ws, "Lead", "run the standup")

	require.NoError(t, e.Run(context.Background(), ws.ID()))

	// One sender turn produced three deliveries; each recipient then took
	// exactly one turn.
	assert.Equal(t, 1, ws.TurnCount("Lead"))
	for _, name := range []string{"B", "C", "D"} {
		assert.Equal(t, 1, ws.TurnCount(name), name)
	}

	status := ws.Status()
	assert.Equal(t, workspace.StateTerminated, status.State)
	assert.Equal(t, workspace.ReasonUserReached, status.Reason)
}

func TestRun_DoneMarkerTerminates(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", replyTo("B", "wrapping up, TASK_COMPLETE"))
	register(t, r, "B", replyTo("A", "should never run"))

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("pair", "marker test", "A", "B"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "go")

	require.NoError(t, e.Run(context.Background(), ws.ID()))

	status := ws.Status()
	assert.Equal(t, workspace.ReasonExplicitDoneMarker, status.Reason)
	assert.Equal(t, 0, ws.TurnCount("B"))
}

func TestRun_TerminateDirective(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", func(ictx *core.InvocationContext) (*core.Directive, error) {
		return core.TerminateDirective(), nil
	})

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("solo", "terminator", "A"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "go")

	require.NoError(t, e.Run(context.Background(), ws.ID()))
	assert.Equal(t, workspace.ReasonExplicitDoneMarker, ws.Status().Reason)
}

func TestRun_CycleBudget(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", replyTo("B", "ping"))
	register(t, r, "B", replyTo("A", "pong"))

	e, m := newTestEngine(r, func(o *Options) {
		o.Config.MaxAgentTurns = 0
		o.Config.MaxCycles = 3
	})
	ws, err := m.Create(core.NewTaskTreeNode("rally", "cycle bound", "A", "B"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "serve")

	require.NoError(t, e.Run(context.Background(), ws.ID()))
	assert.Equal(t, workspace.ReasonMaxCyclesReached, ws.Status().Reason)
}

func TestRun_SilentAgentDrainsQueue(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", func(ictx *core.InvocationContext) (*core.Directive, error) {
		return nil, nil
	})

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("solo", "quiet", "A"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "anything to say?")

	require.NoError(t, e.Run(context.Background(), ws.ID()))

	status := ws.Status()
	assert.Equal(t, workspace.ReasonQueueDrained, status.Reason)
	// Silence still consumed the turn.
	assert.Equal(t, 1, ws.TotalTurns())
}

func TestRun_InvocationErrorFailsWorkspace(t *testing.T) {
	boom := errors.New("upstream unavailable")
	r := core.NewRegistry()
	register(t, r, "A", func(ictx *core.InvocationContext) (*core.Directive, error) {
		return nil, boom
	})

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("solo", "failing", "A"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "go")

	err = e.Run(context.Background(), ws.ID())
	var aerr *core.AgentInvocationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "A", aerr.Agent)
	assert.ErrorIs(t, err, boom)

	status := ws.Status()
	assert.Equal(t, workspace.StateFailed, status.State)
}

func TestRun_PanicInLogicBecomesError(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", func(ictx *core.InvocationContext) (*core.Directive, error) {
		panic("logic bug")
	})

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("solo", "panicky", "A"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "go")

	err = e.Run(context.Background(), ws.ID())
	var aerr *core.AgentInvocationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, workspace.StateFailed, ws.Status().State)
}

func TestRun_ContextCancellation(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", replyTo("B", "ping"))
	register(t, r, "B", replyTo("A", "pong"))

	e, m := newTestEngine(r, func(o *Options) {
		o.Config.MaxAgentTurns = 0
	})
	ws, err := m.Create(core.NewTaskTreeNode("rally", "cancelled", "A", "B"), "")
	require.NoError(t, err)
	seed(t, ws, "A", "serve")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Run(ctx, ws.ID()), context.Canceled)
	assert.False(t, ws.Status().Terminal())
}

func TestRun_TerminalWorkspaceIsNoOp(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "A", replyTo("USER", "done"))

	e, m := newTestEngine(r)
	ws, err := m.Create(core.NewTaskTreeNode("solo", "idempotent", "A"), "")
	require.NoError(t, err)
	ws.MarkTerminated(workspace.ReasonUserReached)

	require.NoError(t, e.Run(context.Background(), ws.ID()))
	assert.Equal(t, 0, ws.TotalTurns())
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "Good", replyTo("USER", "finished"))
	register(t, r, "Bad", func(ictx *core.InvocationContext) (*core.Directive, error) {
		return nil, fmt.Errorf("broken")
	})

	e, m := newTestEngine(r)
	good, err := m.Create(core.NewTaskTreeNode("good", "healthy", "Good"), "")
	require.NoError(t, err)
	bad, err := m.Create(core.NewTaskTreeNode("bad", "broken", "Bad"), "")
	require.NoError(t, err)
	seed(t, good, "Good", "go")
	seed(t, bad, "Bad", "go")

	outcomes := e.RunAll(context.Background())
	require.Len(t, outcomes, 2)

	assert.Equal(t, workspace.StateTerminated, outcomes[good.ID()].Status.State)
	assert.NoError(t, outcomes[good.ID()].Err)

	assert.Equal(t, workspace.StateFailed, outcomes[bad.ID()].Status.State)
	var aerr *core.AgentInvocationError
	require.ErrorAs(t, outcomes[bad.ID()].Err, &aerr)
}

func TestExecuteTaskPlan_RunsHierarchy(t *testing.T) {
	r := core.NewRegistry()
	register(t, r, "Planner", replyTo("USER", "plan ready, TASK_COMPLETE"))
	register(t, r, "Researcher", replyTo("USER", "findings ready, TASK_COMPLETE"))

	root := core.NewTaskTreeNode("launch", "plan the launch", "Planner")
	root.AddChild(core.NewTaskTreeNode("research", "research the market", "Researcher"))

	e, m := newTestEngine(r)
	rootWS, children, err := e.ExecuteTaskPlan(context.Background(), &core.TaskPlan{Root: root}, "Launch the product.")
	require.NoError(t, err)
	require.Len(t, children, 1)

	assert.True(t, rootWS.Status().Terminal())
	assert.True(t, children[0].Status().Terminal())

	// Every workspace was seeded with the task before running.
	assert.GreaterOrEqual(t, rootWS.TranscriptLen(), 1)
	assert.GreaterOrEqual(t, children[0].TranscriptLen(), 1)

	status, err := e.CompletionStatus(rootWS.ID())
	require.NoError(t, err)
	assert.Contains(t, status.StatusMessage, "terminated")
	assert.Equal(t, rootWS.TranscriptLen(), status.TotalMessages)

	_ = m
}

func TestExecuteTaskPlan_NilPlan(t *testing.T) {
	e, _ := newTestEngine(core.NewRegistry())
	_, _, err := e.ExecuteTaskPlan(context.Background(), nil, "task")
	require.Error(t, err)
	_, _, err = e.ExecuteTaskPlan(context.Background(), &core.TaskPlan{}, "task")
	require.Error(t, err)
}
