package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sentinel recipient names understood on the wire. They are reserved and can
// never name a roster agent.
const (
	UserName = "USER"
	AllName  = "ALL"
)

// RecipientKind discriminates the Recipient tagged union.
type RecipientKind int

const (
	// RecipientSingle addresses exactly one named roster agent.
	RecipientSingle RecipientKind = iota
	// RecipientBroadcast addresses an explicit ordered list of roster agents.
	RecipientBroadcast
	// RecipientUser addresses the human user outside the workspace.
	RecipientUser
	// RecipientAll fans out to every other roster member at delivery time.
	RecipientAll
)

// Recipient is the typed destination of a Message or Directive. It replaces
// ad hoc string sniffing with a single tagged union decoded once at the
// adapter boundary via ParseRecipient.
type Recipient struct {
	Kind  RecipientKind
	Names []string // one entry for Single, the ordered list for Broadcast
}

// Single addresses one named agent.
func Single(name string) Recipient {
	return Recipient{Kind: RecipientSingle, Names: []string{name}}
}

// Broadcast addresses an explicit ordered list of agents.
func Broadcast(names ...string) Recipient {
	return Recipient{Kind: RecipientBroadcast, Names: names}
}

// User addresses the human user.
func User() Recipient { return Recipient{Kind: RecipientUser} }

// All addresses every other roster member, resolved at delivery time.
func All() Recipient { return Recipient{Kind: RecipientAll} }

// IsUser reports whether the recipient is the human user.
func (r Recipient) IsUser() bool { return r.Kind == RecipientUser }

// IsAll reports whether the recipient is the ALL fan-out sentinel.
func (r Recipient) IsAll() bool { return r.Kind == RecipientAll }

// String renders the wire representation ("USER", "ALL", a name, or a
// comma-joined broadcast list).
func (r Recipient) String() string {
	switch r.Kind {
	case RecipientUser:
		return UserName
	case RecipientAll:
		return AllName
	case RecipientBroadcast:
		return strings.Join(r.Names, ",")
	default:
		if len(r.Names) == 1 {
			return r.Names[0]
		}
		return ""
	}
}

// ParseRecipient decodes the wire form of a recipient: a bare agent name, the
// "USER"/"ALL" sentinels, or a list of agent names. It is the single typed
// decode step for recipient specifications; callers must not string-sniff
// elsewhere.
func ParseRecipient(v any) (Recipient, error) {
	switch t := v.(type) {
	case string:
		return parseRecipientString(t)
	case []string:
		return parseRecipientList(t)
	case []any:
		names := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return Recipient{}, fmt.Errorf("recipient list entry %v is not a string", e)
			}
			names = append(names, s)
		}
		return parseRecipientList(names)
	case Recipient:
		return t, nil
	default:
		return Recipient{}, fmt.Errorf("unsupported recipient type %T", v)
	}
}

func parseRecipientString(s string) (Recipient, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Recipient{}, fmt.Errorf("empty recipient")
	case strings.EqualFold(s, UserName):
		return User(), nil
	case strings.EqualFold(s, AllName):
		return All(), nil
	default:
		return Single(s), nil
	}
}

func parseRecipientList(names []string) (Recipient, error) {
	if len(names) == 0 {
		return Recipient{}, fmt.Errorf("empty recipient list")
	}
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return Recipient{}, fmt.Errorf("blank name in recipient list")
		}
		cleaned = append(cleaned, n)
	}
	if len(cleaned) == 1 {
		return parseRecipientString(cleaned[0])
	}
	return Broadcast(cleaned...), nil
}

// MarshalJSON emits the wire shape: a string for Single/USER/ALL, a list for
// Broadcast.
func (r Recipient) MarshalJSON() ([]byte, error) {
	if r.Kind == RecipientBroadcast {
		return json.Marshal(r.Names)
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes the wire shape accepted by ParseRecipient.
func (r *Recipient) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRecipient(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
