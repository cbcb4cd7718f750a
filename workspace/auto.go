package workspace

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agenthive/core"
)

// autoKey identifies an ad hoc conversation: an order-independent agent pair
// plus a thread id.
type autoKey struct {
	a, b   string
	thread string
}

func newAutoKey(sender, recipient, thread string) autoKey {
	if sender > recipient {
		sender, recipient = recipient, sender
	}
	return autoKey{a: sender, b: recipient, thread: thread}
}

// AutoManager lazily maps (initiator, counterpart, thread) triples to
// workspaces for address-based conversations that have no task tree behind
// them. Identical keys always yield the same workspace; a new thread id for
// the same pair yields a new workspace. Construction defers to the regular
// Manager with a minimal two-agent roster.
type AutoManager struct {
	manager *Manager

	mu    sync.Mutex
	index map[autoKey]string
}

// NewAutoManager wraps a Manager for ad hoc workspace creation.
func NewAutoManager(manager *Manager) *AutoManager {
	return &AutoManager{manager: manager, index: make(map[autoKey]string)}
}

// Manager returns the underlying workspace manager.
func (am *AutoManager) Manager() *Manager { return am.manager }

// GetOrCreate returns the workspace for the (sender, recipient, thread)
// triple, creating it on first use. The pairing is order-independent:
// (a, b, t) and (b, a, t) resolve to the same workspace.
func (am *AutoManager) GetOrCreate(sender, recipient, threadID string) (*Workspace, error) {
	if sender == "" || recipient == "" {
		return nil, fmt.Errorf("auto workspace: sender and recipient must not be empty")
	}
	if threadID == "" {
		return nil, fmt.Errorf("auto workspace: thread id must not be empty")
	}

	key := newAutoKey(sender, recipient, threadID)

	am.mu.Lock()
	defer am.mu.Unlock()

	if id, ok := am.index[key]; ok {
		if ws, live := am.manager.Get(id); live {
			return ws, nil
		}
		// The mapped workspace was destroyed; fall through and recreate.
		delete(am.index, key)
	}

	// USER may initiate a conversation but never joins the roster.
	var roster []string
	for _, name := range []string{key.a, key.b} {
		if name == core.UserName || name == core.AllName {
			continue
		}
		roster = append(roster, name)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("auto workspace: at least one participant must be an agent")
	}

	node := &core.TaskTreeNode{
		ID:             fmt.Sprintf("auto:%s+%s", key.a, key.b),
		Description:    fmt.Sprintf("ad hoc conversation between %s and %s (thread %s)", key.a, key.b, threadID),
		RequiredAgents: roster,
	}
	ws, err := am.manager.create(node, "", threadID)
	if err != nil {
		return nil, err
	}
	am.index[key] = ws.ID()
	return ws, nil
}
