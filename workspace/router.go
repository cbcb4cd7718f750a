package workspace

import (
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// RoutingResult reports a successful route: the resolved recipient plus the
// transcript entries appended for it. A broadcast to N names yields N
// deliveries for one logical sender turn.
type RoutingResult struct {
	Sender     string
	Recipient  core.Recipient
	Deliveries []core.Message
}

// Router validates recipient specifications against the workspace roster and
// appends messages to the transcript. It never silently redirects an
// unresolvable recipient; the transcript stays untouched on failure.
type Router struct {
	ws     *Workspace
	logger logging.Logger
}

// Workspace returns the routing domain this router serves.
func (r *Router) Workspace() *Workspace { return r.ws }

// Route resolves the recipient, validates it against the roster and appends
// one transcript entry per resolved individual recipient. USER and ALL are
// always resolvable; a Single or Broadcast entry naming an agent outside the
// roster fails with *core.RoutingError.
func (r *Router) Route(sender string, to core.Recipient, content string) (*RoutingResult, error) {
	targets, err := r.resolve(sender, to)
	if err != nil {
		return nil, err
	}

	r.ws.mu.Lock()
	deliveries := make([]core.Message, 0, len(targets))
	for _, target := range targets {
		msg := core.NewMessage(sender, target, content, r.ws.threadID)
		r.ws.transcript = append(r.ws.transcript, msg)
		deliveries = append(deliveries, msg)
	}
	r.ws.mu.Unlock()

	r.logger.Debug("message routed", "workspace_id", r.ws.id, "sender", sender, "recipient", to.String(), "deliveries", len(deliveries))

	return &RoutingResult{Sender: sender, Recipient: to, Deliveries: deliveries}, nil
}

// RouteSpec decodes a raw wire recipient (string, "USER", "ALL" or a name
// list) and routes it. This is the boundary where free-form recipient
// specifications become typed Recipients.
func (r *Router) RouteSpec(sender string, spec any, content string) (*RoutingResult, error) {
	to, err := core.ParseRecipient(spec)
	if err != nil {
		return nil, &core.RoutingError{WorkspaceID: r.ws.id, Sender: sender, Recipient: ""}
	}
	return r.Route(sender, to, content)
}

// resolve expands the recipient into the per-delivery target list, validating
// every named agent against the roster.
func (r *Router) resolve(sender string, to core.Recipient) ([]core.Recipient, error) {
	switch to.Kind {
	case core.RecipientUser:
		return []core.Recipient{core.User()}, nil
	case core.RecipientAll:
		var targets []core.Recipient
		for _, name := range r.ws.Roster() {
			if name == sender {
				continue
			}
			targets = append(targets, core.Single(name))
		}
		return targets, nil
	case core.RecipientSingle, core.RecipientBroadcast:
		targets := make([]core.Recipient, 0, len(to.Names))
		for _, name := range to.Names {
			if !r.ws.HasAgent(name) {
				return nil, &core.RoutingError{WorkspaceID: r.ws.id, Sender: sender, Recipient: name}
			}
			targets = append(targets, core.Single(name))
		}
		return targets, nil
	default:
		return nil, &core.RoutingError{WorkspaceID: r.ws.id, Sender: sender, Recipient: to.String()}
	}
}

// History exposes the workspace transcript views through the router, matching
// the workspace-level accessor.
func (r *Router) History(agent string, scope core.HistoryScope, includeSystem bool) []core.Message {
	return r.ws.History(agent, scope, includeSystem)
}

// Transcript returns a copy of the full transcript.
func (r *Router) Transcript() []core.Message { return r.ws.Transcript() }
