package core

// TaskTreeNode is a hierarchical task-decomposition unit produced by an
// external planner and consumed read-only by the workspace manager. Each node
// maps 1:1 to a workspace.
type TaskTreeNode struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	RequiredAgents  []string        `json:"required_agents"`
	Children        []*TaskTreeNode `json:"children,omitempty"`
	MayNeedSubteams bool            `json:"may_need_subteams"`
}

// TaskPlan wraps the root of a task decomposition.
type TaskPlan struct {
	Root *TaskTreeNode `json:"root"`
}

// NewTaskTreeNode constructs a leaf node; attach children directly or via
// AddChild.
func NewTaskTreeNode(id, description string, requiredAgents ...string) *TaskTreeNode {
	return &TaskTreeNode{ID: id, Description: description, RequiredAgents: requiredAgents}
}

// AddChild appends a child node and marks the parent as needing subteams.
func (n *TaskTreeNode) AddChild(child *TaskTreeNode) *TaskTreeNode {
	n.Children = append(n.Children, child)
	n.MayNeedSubteams = true
	return n
}

// Walk visits the node and all descendants depth-first, pre-order.
func (n *TaskTreeNode) Walk(fn func(*TaskTreeNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
