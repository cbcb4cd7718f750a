// Package agenthive provides a high-level façade over the workspace manager,
// router and scheduler enabling rapid construction of multi‑agent
// coordination systems. Most applications interact with this package by:
//  1. Creating an AgentHive via New() (optionally overriding engine defaults)
//  2. Registering local and remote agents
//  3. Creating workspaces from task plans and running them (ExecuteTaskPlan)
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger and
// tuned turn budgets.
package agenthive

import (
	"context"
	"fmt"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/config"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/engine"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/workspace"
)

// Options configures the AgentHive instance.
type Options struct {
	// EngineConfig bounds scheduler execution (turn budgets, cycle budgets,
	// done marker, fleet concurrency).
	EngineConfig engine.Config

	// MaxWorkspaceDepth bounds the workspace hierarchy built from task plans.
	MaxWorkspaceDepth int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentHive is the high-level façade aggregating the registry, workspace
// manager and engine.
type AgentHive struct {
	opts     Options
	registry *core.Registry
	manager  *workspace.Manager
	auto     *workspace.AutoManager
	engine   *engine.Engine
}

// New creates a new AgentHive instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentHive {
	opts := Options{
		EngineConfig:      engine.DefaultConfig,
		MaxWorkspaceDepth: workspace.DefaultMaxWorkspaceDepth,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := core.NewRegistry()

	manager := workspace.NewManager(registry, func(o *workspace.ManagerOptions) {
		o.MaxWorkspaceDepth = opts.MaxWorkspaceDepth
		o.Logger = opts.Logger
	})

	eng := engine.New(manager, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Logger = opts.Logger
	})

	return &AgentHive{
		opts:     opts,
		registry: registry,
		manager:  manager,
		auto:     workspace.NewAutoManager(manager),
		engine:   eng,
	}
}

// FromConfig builds an AgentHive from a loaded configuration document,
// registering any configured remote agents.
func FromConfig(cfg *config.Config, optFns ...func(o *Options)) (*AgentHive, error) {
	base := func(o *Options) {
		o.EngineConfig = engine.Config{
			MaxAgentTurns:           cfg.Engine.MaxAgentTurns,
			MaxCycles:               cfg.Engine.MaxCycles,
			DoneMarker:              cfg.Engine.DoneMarker,
			MaxConcurrentWorkspaces: cfg.Engine.MaxConcurrentWorkspaces,
		}
		o.MaxWorkspaceDepth = cfg.Workspace.MaxDepth
	}

	hive := New(append([]func(o *Options){base}, optFns...)...)

	for _, spec := range cfg.RemoteAgents {
		if err := hive.RegisterRemote(spec); err != nil {
			return nil, err
		}
	}
	return hive, nil
}

// Registry exposes the agent registry for direct definition management.
func (h *AgentHive) Registry() *core.Registry { return h.registry }

// Manager exposes the workspace manager.
func (h *AgentHive) Manager() *workspace.Manager { return h.manager }

// Register adds an agent definition to the registry.
func (h *AgentHive) Register(def core.Definition) error {
	return h.registry.Register(def)
}

// RegisterLocal builds and registers a local agent in one step.
func (h *AgentHive) RegisterLocal(name string, logic agent.LogicFunc, optFns ...func(o *agent.LocalOptions)) error {
	return h.registry.Register(agent.NewLocal(name, logic, optFns...))
}

// RegisterRemote builds and registers a remote agent endpoint in one step.
func (h *AgentHive) RegisterRemote(spec agent.RemoteSpec, optFns ...func(o *agent.RemoteOptions)) error {
	return agent.RegisterRemote(h.registry, spec, optFns...)
}

// CreateWorkspace materializes a workspace tree from a task plan node.
func (h *AgentHive) CreateWorkspace(node *core.TaskTreeNode) (*workspace.Workspace, error) {
	return h.manager.Create(node, "")
}

// GetOrCreateWorkspace returns the workspace bound to a sender/recipient pair
// within a thread, creating it on first use.
func (h *AgentHive) GetOrCreateWorkspace(sender, recipient, threadID string) (*workspace.Workspace, error) {
	return h.auto.GetOrCreate(sender, recipient, threadID)
}

// RouteMessage injects a message into a workspace. The spec may be an agent
// name, "USER", "ALL" or a list of names.
func (h *AgentHive) RouteMessage(workspaceID, sender string, spec any, content string) (*workspace.RoutingResult, error) {
	ws, ok := h.manager.Get(workspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace %q not found", workspaceID)
	}
	return ws.Router().RouteSpec(sender, spec, content)
}

// Run drives a single workspace until a termination condition is met.
func (h *AgentHive) Run(ctx context.Context, workspaceID string) error {
	return h.engine.Run(ctx, workspaceID)
}

// RunAll drives every live workspace concurrently and reports per-workspace
// outcomes.
func (h *AgentHive) RunAll(ctx context.Context) map[string]engine.RunOutcome {
	return h.engine.RunAll(ctx)
}

// ExecuteTaskPlan creates the workspace hierarchy for a plan, seeds every
// workspace with the task, and runs the fleet to completion.
func (h *AgentHive) ExecuteTaskPlan(ctx context.Context, plan *core.TaskPlan, userTask string) (*workspace.Workspace, []*workspace.Workspace, error) {
	return h.engine.ExecuteTaskPlan(ctx, plan, userTask)
}

// CompletionStatus summarizes how a workspace finished.
func (h *AgentHive) CompletionStatus(workspaceID string) (workspace.CompletionStatus, error) {
	return h.engine.CompletionStatus(workspaceID)
}

// WorkspaceTree returns a serializable snapshot of the live hierarchy.
func (h *AgentHive) WorkspaceTree() *workspace.TreeView {
	return h.manager.Tree()
}

// DestroyWorkspace removes a workspace and its descendants.
func (h *AgentHive) DestroyWorkspace(workspaceID string) {
	h.manager.Destroy(workspaceID)
}
