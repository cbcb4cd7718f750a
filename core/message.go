package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one routed unit of content inside a workspace transcript. After
// a Router appends it the message must be treated as immutable.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        Recipient `json:"to"`
	Content   string    `json:"content"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Timestamp time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh ID and UTC timestamp.
func NewMessage(from string, to Recipient, content, threadID string) Message {
	return Message{
		ID:        NewID(),
		From:      from,
		To:        to,
		Content:   content,
		ThreadID:  threadID,
		Timestamp: time.Now().UTC(),
	}
}

// IsSystem reports whether the message carries an internal marker rather than
// conversational content. Markers are bracketed, e.g. "[startup]".
func (m Message) IsSystem() bool {
	c := strings.TrimSpace(m.Content)
	return strings.HasPrefix(c, "[") && strings.HasSuffix(c, "]")
}

// Involves reports whether the named agent is the sender or an addressed
// recipient of the message. ALL counts as involving everyone.
func (m Message) Involves(name string) bool {
	if m.From == name || m.To.IsAll() {
		return true
	}
	for _, n := range m.To.Names {
		if n == name {
			return true
		}
	}
	return false
}

// NewID generates a new unique identifier for messages and workspaces.
func NewID() string { return uuid.NewString() }
