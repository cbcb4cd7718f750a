package agent

import (
	"sync"

	"github.com/hupe1980/agenthive/core"
)

// conversationMemory is the per-workspace-instance message log a binding
// accumulates across its turns. It replaces ad hoc process-wide state: the
// memory is owned by the binding instance, scoped to one workspace and
// destroyed with it.
type conversationMemory struct {
	mu   sync.Mutex
	msgs []core.Message
}

func (m *conversationMemory) record(msg core.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

func (m *conversationMemory) messages() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}
