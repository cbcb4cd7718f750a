package workspace

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// MaxWorkspaceDepth caps the workspace tree depth; creation of a deeper
	// workspace fails before any partial state is built.
	MaxWorkspaceDepth int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// DefaultMaxWorkspaceDepth bounds workspace trees unless overridden.
const DefaultMaxWorkspaceDepth = 5

// Manager creates and destroys workspaces, builds workspace trees from
// task-tree specifications 1:1 (one workspace per node) and maintains
// whole-tree introspection. Safe for concurrent use.
type Manager struct {
	registry *core.Registry
	maxDepth int
	logger   logging.Logger

	mu         sync.RWMutex
	workspaces map[string]*Workspace
	children   map[string][]string // parent workspace id -> ordered child ids
	order      []string            // creation order, for deterministic views
}

// NewManager constructs a Manager resolving agent names against the given
// registry.
func NewManager(registry *core.Registry, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		MaxWorkspaceDepth: DefaultMaxWorkspaceDepth,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		registry:   registry,
		maxDepth:   opts.MaxWorkspaceDepth,
		logger:     opts.Logger,
		workspaces: make(map[string]*Workspace),
		children:   make(map[string][]string),
	}
}

// Registry returns the binding registry used to resolve rosters.
func (m *Manager) Registry() *core.Registry { return m.registry }

// Create instantiates one workspace per task-tree node recursively, honoring
// MayNeedSubteams. Each node's required agents are resolved against the
// registry into fresh, workspace-scoped binding instances. The returned
// workspace is the one created for the given node; descendants are reachable
// via Children/Tree.
//
// Depth is accumulated from the root. If any node in the subtree would exceed
// the configured maximum depth, creation fails with
// *core.WorkspaceDepthExceededError before any workspace is built.
func (m *Manager) Create(node *core.TaskTreeNode, parentID string) (*Workspace, error) {
	return m.create(node, parentID, "")
}

func (m *Manager) create(node *core.TaskTreeNode, parentID, threadID string) (*Workspace, error) {
	if node == nil {
		return nil, fmt.Errorf("create workspace: task tree node must not be nil")
	}

	baseDepth := 0
	if parentID != "" {
		parent, ok := m.Get(parentID)
		if !ok {
			return nil, fmt.Errorf("create workspace: parent workspace %q not found", parentID)
		}
		baseDepth = parent.Depth() + 1
	}

	// Validate the whole subtree up front so a refusal leaves no partial state.
	if err := m.validateSubtree(node, baseDepth); err != nil {
		return nil, err
	}

	return m.buildSubtree(node, parentID, baseDepth, threadID)
}

func (m *Manager) validateSubtree(node *core.TaskTreeNode, depth int) error {
	if depth > m.maxDepth {
		return &core.WorkspaceDepthExceededError{NodeID: node.ID, Depth: depth, MaxDepth: m.maxDepth}
	}
	for _, name := range node.RequiredAgents {
		if _, ok := m.registry.Definition(name); !ok {
			return fmt.Errorf("task node %s: %q: %w", node.ID, name, core.ErrUnknownAgent)
		}
	}
	if node.MayNeedSubteams {
		for _, child := range node.Children {
			if err := m.validateSubtree(child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) buildSubtree(node *core.TaskTreeNode, parentID string, depth int, threadID string) (*Workspace, error) {
	id := core.NewID()
	if threadID == "" {
		threadID = id
	}
	ws := newWorkspace(id, node.ID, node.Description, parentID, depth, threadID, m.logger)

	for _, name := range node.RequiredAgents {
		binding, err := m.registry.NewBinding(name)
		if err != nil {
			return nil, err
		}
		if err := ws.bindAgent(name, binding); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.workspaces[id] = ws
	m.order = append(m.order, id)
	if parentID != "" {
		m.children[parentID] = append(m.children[parentID], id)
	}
	m.mu.Unlock()

	m.logger.Info("workspace created", "workspace_id", id, "name", node.ID, "depth", depth, "agents", len(node.RequiredAgents))

	if node.MayNeedSubteams {
		for _, child := range node.Children {
			if _, err := m.buildSubtree(child, id, depth+1, ""); err != nil {
				return nil, err
			}
		}
	}

	return ws, nil
}

// Get returns the workspace with the given id.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.workspaces[id]
	return ws, ok
}

// Children returns the direct child workspaces of id in creation order.
func (m *Manager) Children(id string) []*Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.children[id]
	out := make([]*Workspace, 0, len(ids))
	for _, cid := range ids {
		if ws, ok := m.workspaces[cid]; ok {
			out = append(out, ws)
		}
	}
	return out
}

// Descendants returns every workspace below id, depth-first.
func (m *Manager) Descendants(id string) []*Workspace {
	var out []*Workspace
	for _, child := range m.Children(id) {
		out = append(out, child)
		out = append(out, m.Descendants(child.ID())...)
	}
	return out
}

// Workspaces returns all live workspaces in creation order.
func (m *Manager) Workspaces() []*Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Workspace, 0, len(m.order))
	for _, id := range m.order {
		if ws, ok := m.workspaces[id]; ok {
			out = append(out, ws)
		}
	}
	return out
}

// Roots returns all live root workspaces (depth 0) in creation order.
func (m *Manager) Roots() []*Workspace {
	var out []*Workspace
	for _, ws := range m.Workspaces() {
		if ws.ParentID() == "" {
			out = append(out, ws)
		}
	}
	return out
}

// Destroy removes the workspace and all descendants from tree introspection,
// releasing their agent instances and transcripts. Destroying an unknown or
// already-destroyed id is a no-op.
func (m *Manager) Destroy(id string) {
	m.mu.RLock()
	_, exists := m.workspaces[id]
	m.mu.RUnlock()
	if !exists {
		return
	}

	// Cascade bottom-up so children never outlive their parent in the view.
	for _, childID := range m.childIDs(id) {
		m.Destroy(childID)
	}

	m.mu.Lock()
	ws, ok := m.workspaces[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.workspaces, id)
	delete(m.children, id)
	if parent := ws.ParentID(); parent != "" {
		m.children[parent] = removeID(m.children[parent], id)
	}
	m.order = removeID(m.order, id)
	m.mu.Unlock()

	ws.release()
	m.logger.Info("workspace destroyed", "workspace_id", id)
}

func (m *Manager) childIDs(id string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.children[id]))
	copy(out, m.children[id])
	return out
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// TreeAgent identifies a roster member in a tree view.
type TreeAgent struct {
	Name string `json:"name"`
}

// TreeNode is the introspection view of one workspace.
type TreeNode struct {
	WorkspaceID   string      `json:"workspace_id"`
	WorkspaceName string      `json:"workspace_name"`
	Description   string      `json:"description"`
	Depth         int         `json:"depth"`
	Agents        []TreeAgent `json:"agents"`
	MessageCount  int         `json:"message_count"`
	Children      []*TreeNode `json:"children"`
}

// TreeView is the whole-tree introspection snapshot.
type TreeView struct {
	TotalWorkspaces int         `json:"total_workspaces"`
	Roots           []*TreeNode `json:"roots"`
}

// Tree returns a snapshot of every live workspace arranged by parentage.
func (m *Manager) Tree() *TreeView {
	roots := m.Roots()
	view := &TreeView{Roots: make([]*TreeNode, 0, len(roots))}
	m.mu.RLock()
	view.TotalWorkspaces = len(m.workspaces)
	m.mu.RUnlock()
	for _, root := range roots {
		view.Roots = append(view.Roots, m.treeNode(root))
	}
	return view
}

func (m *Manager) treeNode(ws *Workspace) *TreeNode {
	node := &TreeNode{
		WorkspaceID:   ws.ID(),
		WorkspaceName: ws.Name(),
		Description:   ws.Description(),
		Depth:         ws.Depth(),
		MessageCount:  ws.TranscriptLen(),
	}
	for _, name := range ws.Roster() {
		node.Agents = append(node.Agents, TreeAgent{Name: name})
	}
	for _, child := range m.Children(ws.ID()) {
		node.Children = append(node.Children, m.treeNode(child))
	}
	return node
}
