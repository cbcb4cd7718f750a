package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/workspace"
)

// Config defines tuning parameters for the scheduler's operational behavior.
type Config struct {
	// MaxAgentTurns caps the per-workspace turn counter. The limit is checked
	// before granting a new turn; in-flight turns always complete. Set to 0
	// for unlimited.
	MaxAgentTurns int

	// MaxCycles caps the number of full drain passes over a workspace's
	// pending queue. Set to 0 for unlimited.
	MaxCycles int

	// DoneMarker is the out-of-band completion signal recognized in agent
	// content. When a routed directive contains the marker the workspace
	// terminates with ReasonExplicitDoneMarker. Empty disables the check.
	DoneMarker string

	// MaxConcurrentWorkspaces limits how many workspaces the fleet-wide
	// scheduler drives simultaneously. Set to 0 for unlimited.
	MaxConcurrentWorkspaces int
}

// DefaultConfig provides conservative defaults suitable for local
// development: a 25 turn budget, unlimited cycles and the coordination
// protocol's TASK_COMPLETE marker.
var DefaultConfig = Config{
	MaxAgentTurns:           25,
	MaxCycles:               0,
	DoneMarker:              "TASK_COMPLETE",
	MaxConcurrentWorkspaces: 10,
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters for scheduler behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Engine is the turn-driving state machine for one or many workspaces. It
// consumes pending deliveries, invokes the addressed agent bindings, applies
// the resulting directives via the workspace router and enforces termination
// policy. Public methods are safe for concurrent use; each workspace's turns
// remain strictly sequential.
type Engine struct {
	manager *workspace.Manager
	config  Config
	logger  logging.Logger

	mu   sync.Mutex
	runs map[string]*runState
}

// New constructs an Engine driving workspaces owned by the given manager.
func New(manager *workspace.Manager, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		manager: manager,
		config:  opts.Config,
		logger:  opts.Logger,
		runs:    make(map[string]*runState),
	}
}

// Manager returns the workspace manager the engine drives.
func (e *Engine) Manager() *workspace.Manager { return e.manager }

// RunOutcome is the per-workspace result of a fleet-wide run.
type RunOutcome struct {
	WorkspaceID string
	Status      workspace.Status
	Err         error
}

// RunAll drives every live, non-terminal workspace to completion
// concurrently. Outcomes are collected per workspace; a failing workspace
// never aborts its siblings and errors never escape the fleet run.
func (e *Engine) RunAll(ctx context.Context) map[string]RunOutcome {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		outcomes = make(map[string]RunOutcome)
	)
	if e.config.MaxConcurrentWorkspaces > 0 {
		g.SetLimit(e.config.MaxConcurrentWorkspaces)
	}

	for _, ws := range e.manager.Workspaces() {
		if ws.Status().Terminal() {
			continue
		}
		ws := ws
		g.Go(func() error {
			err := e.Run(ctx, ws.ID())
			mu.Lock()
			outcomes[ws.ID()] = RunOutcome{WorkspaceID: ws.ID(), Status: ws.Status(), Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// ExecuteTaskPlan builds the full workspace tree for a task plan, seeds the
// root and every subtree workspace with its task, drives the fleet to
// completion and returns the root plus its direct children for caller-side
// aggregation. Planning itself is the caller's concern.
func (e *Engine) ExecuteTaskPlan(ctx context.Context, plan *core.TaskPlan, userTask string) (*workspace.Workspace, []*workspace.Workspace, error) {
	if plan == nil || plan.Root == nil {
		return nil, nil, fmt.Errorf("execute task plan: plan root must not be nil")
	}

	root, err := e.manager.Create(plan.Root, "")
	if err != nil {
		return nil, nil, err
	}

	if _, err := root.Router().Route(core.UserName, core.All(), userTask); err != nil {
		return nil, nil, err
	}
	for _, ws := range e.manager.Descendants(root.ID()) {
		subtask := fmt.Sprintf("%s\n\nYour subtask: %s", userTask, ws.Description())
		if _, err := ws.Router().Route(core.UserName, core.All(), subtask); err != nil {
			return nil, nil, err
		}
	}

	e.RunAll(ctx)

	return root, e.manager.Children(root.ID()), nil
}

// CompletionStatus returns the caller-facing run summary for a workspace.
func (e *Engine) CompletionStatus(workspaceID string) (workspace.CompletionStatus, error) {
	ws, ok := e.manager.Get(workspaceID)
	if !ok {
		return workspace.CompletionStatus{}, fmt.Errorf("workspace %q not found", workspaceID)
	}
	return ws.CompletionStatus(), nil
}

func (e *Engine) runStateFor(workspaceID string) *runState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.runs[workspaceID]
	if !ok {
		st = &runState{}
		e.runs[workspaceID] = st
	}
	return st
}
