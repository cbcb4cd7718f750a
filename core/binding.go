package core

import (
	"fmt"
	"sort"
	"sync"
)

// CoordinationStyle expresses how an agent prefers to address its peers when
// the logic does not specify a recipient explicitly.
type CoordinationStyle string

const (
	// CoordinationDirect prefers addressing a single named peer.
	CoordinationDirect CoordinationStyle = "direct"
	// CoordinationBroadcast prefers fanning out to all peers.
	CoordinationBroadcast CoordinationStyle = "broadcast"
)

// AgentBinding is the single capability interface shared by all agent
// adapters: local in-process logic and remote protocol endpoints satisfy it
// identically, and scheduler code must not branch on agent origin.
//
// Invoke receives the scoped execution view for one turn and returns the
// resulting directive. Returning a nil directive with a nil error means the
// agent stayed silent for this turn.
type AgentBinding interface {
	Name() string
	Invoke(ictx *InvocationContext) (*Directive, error)
}

// Definition is the static metadata plus instance factory registered for an
// agent name. Workspaces bind fresh instances via New so conversational state
// never leaks across workspaces sharing the same underlying logic.
type Definition struct {
	Name                string
	DisplayName         string
	Description         string
	Capabilities        []string
	DefaultTarget       string
	DefaultCoordination CoordinationStyle
	New                 func() AgentBinding
}

// Registry is the process-wide catalogue of agent binding definitions. It is
// append-mostly and safe for concurrent use; once a run's roster is fixed the
// read path takes only an RLock.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds or replaces a definition. The name and instance factory are
// mandatory; the reserved USER/ALL sentinels are rejected.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("register agent: name must not be empty")
	}
	if def.Name == UserName || def.Name == AllName {
		return fmt.Errorf("register agent: %q is a reserved recipient name", def.Name)
	}
	if def.New == nil {
		return fmt.Errorf("register agent %q: instance factory must not be nil", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	return nil
}

// Definition returns the registered definition for a name.
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// NewBinding instantiates a fresh, workspace-scoped binding for the named
// agent.
func (r *Registry) NewBinding(name string) (AgentBinding, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", name, ErrUnknownAgent)
	}
	return def.New(), nil
}

// Names returns all registered agent names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptions returns a name -> description map for routing or planner
// prompts.
func (r *Registry) Descriptions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.defs))
	for n, d := range r.defs {
		out[n] = d.Description
	}
	return out
}
