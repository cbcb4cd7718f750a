package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
)

type echoBinding struct{ name string }

func (b *echoBinding) Name() string { return b.name }
func (b *echoBinding) Invoke(ictx *core.InvocationContext) (*core.Directive, error) {
	return nil, nil
}

func testRegistry(t *testing.T, names ...string) *core.Registry {
	t.Helper()
	r := core.NewRegistry()
	for _, name := range names {
		name := name
		require.NoError(t, r.Register(core.Definition{
			Name: name,
			New:  func() core.AgentBinding { return &echoBinding{name: name} },
		}))
	}
	return r
}

func testWorkspace(t *testing.T, names ...string) *Workspace {
	t.Helper()
	m := NewManager(testRegistry(t, names...))
	ws, err := m.Create(core.NewTaskTreeNode("room", "test room", names...), "")
	require.NoError(t, err)
	return ws
}

func TestRouter_SingleDelivery(t *testing.T) {
	ws := testWorkspace(t, "A", "B")

	res, err := ws.Router().Route("A", core.Single("B"), "hello")
	require.NoError(t, err)
	require.Len(t, res.Deliveries, 1)
	assert.Equal(t, "A", res.Deliveries[0].From)
	assert.Equal(t, "B", res.Deliveries[0].To.String())
	assert.Equal(t, 1, ws.TranscriptLen())
}

func TestRouter_UnknownRecipientLeavesTranscriptUntouched(t *testing.T) {
	ws := testWorkspace(t, "A", "B")

	_, err := ws.Router().Route("A", core.Single("Ghost"), "hello")
	var rerr *core.RoutingError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Ghost", rerr.Recipient)
	assert.Equal(t, 0, ws.TranscriptLen())

	// A broadcast with one bad name fails atomically.
	_, err = ws.Router().Route("A", core.Broadcast("B", "Ghost"), "hello")
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 0, ws.TranscriptLen())
}

func TestRouter_BroadcastFanOut(t *testing.T) {
	ws := testWorkspace(t, "A", "B", "C")

	res, err := ws.Router().Route("A", core.Broadcast("B", "C"), "status?")
	require.NoError(t, err)
	assert.Len(t, res.Deliveries, 2)
	assert.Equal(t, 2, ws.TranscriptLen())
}

func TestRouter_AllExcludesSender(t *testing.T) {
	ws := testWorkspace(t, "A", "B", "C")

	res, err := ws.Router().Route("A", core.All(), "everyone")
	require.NoError(t, err)
	require.Len(t, res.Deliveries, 2)
	for _, d := range res.Deliveries {
		assert.NotEqual(t, "A", d.To.String())
	}
}

func TestRouter_UserAlwaysResolvable(t *testing.T) {
	ws := testWorkspace(t, "A")

	res, err := ws.Router().Route("A", core.User(), "final answer")
	require.NoError(t, err)
	require.Len(t, res.Deliveries, 1)
	assert.True(t, res.Deliveries[0].To.IsUser())
}

func TestRouter_RouteSpecDecodesWireShapes(t *testing.T) {
	ws := testWorkspace(t, "A", "B", "C")

	res, err := ws.Router().RouteSpec("A", "USER", "done")
	require.NoError(t, err)
	assert.True(t, res.Recipient.IsUser())

	res, err = ws.Router().RouteSpec("A", []any{"B", "C"}, "fan out")
	require.NoError(t, err)
	assert.Len(t, res.Deliveries, 2)

	_, err = ws.Router().RouteSpec("A", 42, "bad spec")
	var rerr *core.RoutingError
	require.ErrorAs(t, err, &rerr)
}

func TestWorkspace_HistoryScoping(t *testing.T) {
	ws := testWorkspace(t, "A", "B", "C")
	router := ws.Router()

	_, err := router.Route(core.UserName, core.Single("A"), "[startup]")
	require.NoError(t, err)
	_, err = router.Route("A", core.Single("B"), "for B")
	require.NoError(t, err)
	_, err = router.Route("B", core.Single("C"), "for C")
	require.NoError(t, err)

	// Agent scope: only messages A sent or received, markers filtered.
	hist := ws.History("A", core.AgentScope, false)
	require.Len(t, hist, 1)
	assert.Equal(t, "for B", hist[0].Content)

	// Markers show up when requested.
	hist = ws.History("A", core.AgentScope, true)
	assert.Len(t, hist, 2)

	// Workspace scope sees everything.
	hist = ws.History("A", core.WorkspaceScope, true)
	assert.Len(t, hist, 3)
}

func TestWorkspace_TurnAccounting(t *testing.T) {
	ws := testWorkspace(t, "A", "B")

	agentTurns, wsTurns := ws.IncrementTurn("A")
	assert.Equal(t, 1, agentTurns)
	assert.Equal(t, 1, wsTurns)

	_, wsTurns = ws.IncrementTurn("B")
	assert.Equal(t, 2, wsTurns)
	assert.Equal(t, 1, ws.TurnCount("A"))
	assert.Equal(t, 1, ws.TurnCount("B"))
}

func TestWorkspace_TerminalStatesSticky(t *testing.T) {
	ws := testWorkspace(t, "A")

	ws.MarkRunning()
	assert.Equal(t, StateRunning, ws.Status().State)

	ws.MarkTerminated(ReasonUserReached)
	require.True(t, ws.Status().Terminal())

	ws.MarkRunning()
	assert.Equal(t, StateTerminated, ws.Status().State)
	ws.MarkFailed(assert.AnError)
	assert.Equal(t, ReasonUserReached, ws.Status().Reason)
}
