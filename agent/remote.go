package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// InvocationPayload is the wire request a remote agent receives for one turn.
type InvocationPayload struct {
	AgentName   string `json:"agent_name"`
	WorkspaceID string `json:"workspace_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Content     string `json:"content"`
	ThreadID    string `json:"thread_id"`
	SharedPlan  string `json:"shared_plan,omitempty"`
}

// Transport delivers an invocation payload to a remote endpoint and returns
// the raw reply body. Replies are decoded with the same lenient directive
// parsing rules as local agent output.
type Transport interface {
	Invoke(ctx context.Context, payload InvocationPayload) (string, error)
}

// HTTPTransport posts invocation payloads as JSON against a fixed endpoint
// URL.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// HTTPTransportOptions configures an HTTPTransport.
type HTTPTransportOptions struct {
	// Client defaults to an http.Client with a 60s timeout.
	Client *http.Client
}

// NewHTTPTransport builds a transport against the given endpoint URL.
func NewHTTPTransport(url string, optFns ...func(o *HTTPTransportOptions)) *HTTPTransport {
	opts := HTTPTransportOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPTransport{url: url, client: client}
}

// Invoke implements Transport.
func (t *HTTPTransport) Invoke(ctx context.Context, payload InvocationPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal invocation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build invocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke remote agent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("remote agent returned status %d", resp.StatusCode)
	}

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read remote agent reply: %w", err)
	}
	return string(reply), nil
}

// InvokeSubject returns the NATS request/reply subject for a remote agent
// role.
func InvokeSubject(role string) string {
	return fmt.Sprintf("agent.%s.invoke", role)
}

// NATSTransport delivers invocation payloads via NATS request/reply on the
// role's invoke subject.
type NATSTransport struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NATSTransportOptions configures a NATSTransport.
type NATSTransportOptions struct {
	// Timeout bounds each request/reply exchange. Defaults to 60s.
	Timeout time.Duration
}

// NewNATSTransport builds a transport requesting on the role's invoke
// subject.
func NewNATSTransport(conn *nats.Conn, role string, optFns ...func(o *NATSTransportOptions)) *NATSTransport {
	opts := NATSTransportOptions{Timeout: 60 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &NATSTransport{conn: conn, subject: InvokeSubject(role), timeout: opts.Timeout}
}

// Invoke implements Transport.
func (t *NATSTransport) Invoke(ctx context.Context, payload InvocationPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal invocation payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	msg, err := t.conn.RequestWithContext(ctx, t.subject, data)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", t.subject, err)
	}
	return string(msg.Data), nil
}

// RemoteSpec binds a name to a remote endpoint under the same invocation
// contract as local agents.
type RemoteSpec struct {
	// Role is the roster name the remote agent answers to.
	Role string `json:"role" yaml:"role"`
	// URL is the endpoint for HTTP-based transports.
	URL string `json:"url" yaml:"url"`
	// Name is the human-friendly display name.
	Name string `json:"name" yaml:"name"`
	// Transport selects the wire protocol: "JSONRPC", "HTTP" or "NATS".
	Transport string `json:"transport" yaml:"transport"`
	// Description explains what the remote agent does.
	Description string `json:"description" yaml:"description"`
}

// RemoteOptions configures remote agent registration.
type RemoteOptions struct {
	// DefaultTarget receives recovered plain-content directives. Defaults to
	// USER.
	DefaultTarget string
	// HTTPClient overrides the client used by HTTP-based transports.
	HTTPClient *http.Client
	// NATSConn is required for the NATS transport.
	NATSConn *nats.Conn
	// Timeout bounds NATS request/reply exchanges.
	Timeout time.Duration
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// NewRemote builds a registry definition for a remote agent endpoint. All
// workspace-scoped instances share the stateless transport.
func NewRemote(spec RemoteSpec, optFns ...func(o *RemoteOptions)) (core.Definition, error) {
	opts := RemoteOptions{
		DefaultTarget: core.UserName,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	transport, err := buildTransport(spec, opts)
	if err != nil {
		return core.Definition{}, err
	}

	return core.Definition{
		Name:          spec.Role,
		DisplayName:   spec.Name,
		Description:   spec.Description,
		DefaultTarget: opts.DefaultTarget,
		New: func() core.AgentBinding {
			return &RemoteAgent{
				name:          spec.Role,
				transport:     transport,
				defaultTarget: opts.DefaultTarget,
				logger:        opts.Logger,
			}
		},
	}, nil
}

func buildTransport(spec RemoteSpec, opts RemoteOptions) (Transport, error) {
	switch strings.ToUpper(spec.Transport) {
	case "", "JSONRPC", "HTTP":
		if spec.URL == "" {
			return nil, fmt.Errorf("remote agent %q: url is required for transport %q", spec.Role, spec.Transport)
		}
		return NewHTTPTransport(spec.URL, func(o *HTTPTransportOptions) {
			o.Client = opts.HTTPClient
		}), nil
	case "NATS":
		if opts.NATSConn == nil {
			return nil, fmt.Errorf("remote agent %q: NATS transport requires a connection", spec.Role)
		}
		return NewNATSTransport(opts.NATSConn, spec.Role, func(o *NATSTransportOptions) {
			if opts.Timeout > 0 {
				o.Timeout = opts.Timeout
			}
		}), nil
	default:
		return nil, fmt.Errorf("remote agent %q: unsupported transport %q", spec.Role, spec.Transport)
	}
}

// RegisterRemote builds and registers a remote agent definition in one step.
func RegisterRemote(registry *core.Registry, spec RemoteSpec, optFns ...func(o *RemoteOptions)) error {
	def, err := NewRemote(spec, optFns...)
	if err != nil {
		return err
	}
	return registry.Register(def)
}

// RemoteAgent adapts an external protocol endpoint to the AgentBinding
// capability. The scheduler treats it exactly like a local agent; only the
// adapter boundary differs.
type RemoteAgent struct {
	name          string
	transport     Transport
	defaultTarget string
	logger        logging.Logger
}

// Name implements core.AgentBinding.
func (a *RemoteAgent) Name() string { return a.name }

// Invoke implements core.AgentBinding. Transport failures propagate as
// invocation errors; unparseable replies are recovered into plain-content
// directives addressed to the default target.
func (a *RemoteAgent) Invoke(ictx *core.InvocationContext) (*core.Directive, error) {
	payload := InvocationPayload{
		AgentName:   a.name,
		WorkspaceID: ictx.WorkspaceID,
		SharedPlan:  ictx.SharedPlan,
	}
	if ictx.Latest != nil {
		payload.From = ictx.Latest.From
		payload.To = ictx.Latest.To.String()
		payload.Content = ictx.Latest.Content
		payload.ThreadID = ictx.Latest.ThreadID
	}

	reply, err := a.transport.Invoke(ictx.Context, payload)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		return nil, nil
	}

	directive, err := ParseDirective(a.name, reply)
	if err != nil {
		a.logger.Warn("recovering malformed remote reply", "agent", a.name, "error", err)
		to, perr := core.ParseRecipient(a.defaultTarget)
		if perr != nil {
			to = core.User()
		}
		directive = core.NewDirective(to, reply)
	}
	return directive, nil
}
