package agent

import (
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// LogicFunc is the in-process agent logic contract: it receives the scoped
// invocation context and returns raw output text. The surrounding adapter
// handles fence stripping, JSON parsing, truncated-output repair and
// malformed-output recovery, so logic may return a directive JSON document or
// any plain text. Returning an empty string means silence for this turn.
type LogicFunc func(ictx *core.InvocationContext) (string, error)

// LocalOptions configures a local agent definition.
type LocalOptions struct {
	// DisplayName is a human-friendly label; defaults to the agent name.
	DisplayName string
	// Description explains what the agent does (used in planner and routing
	// prompts).
	Description string
	// Capabilities advertises what the agent can do.
	Capabilities []string
	// DefaultTarget receives recovered plain-content directives and
	// unaddressed output. Defaults to USER.
	DefaultTarget string
	// DefaultCoordination expresses the agent's preferred addressing style.
	DefaultCoordination core.CoordinationStyle
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// NewLocal builds a registry definition for in-process agent logic. Each
// workspace binds a fresh LocalAgent instance from the definition so
// conversational memory never leaks across workspaces sharing the same logic.
func NewLocal(name string, logic LogicFunc, optFns ...func(o *LocalOptions)) core.Definition {
	opts := LocalOptions{
		DisplayName:         name,
		DefaultTarget:       core.UserName,
		DefaultCoordination: core.CoordinationDirect,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return core.Definition{
		Name:                name,
		DisplayName:         opts.DisplayName,
		Description:         opts.Description,
		Capabilities:        opts.Capabilities,
		DefaultTarget:       opts.DefaultTarget,
		DefaultCoordination: opts.DefaultCoordination,
		New: func() core.AgentBinding {
			return &LocalAgent{
				name:          name,
				logic:         logic,
				defaultTarget: opts.DefaultTarget,
				logger:        opts.Logger,
			}
		},
	}
}

// LocalAgent adapts in-process logic to the AgentBinding capability. One
// instance serves exactly one workspace.
type LocalAgent struct {
	name          string
	logic         LogicFunc
	defaultTarget string
	logger        logging.Logger
	memory        conversationMemory
}

// Name implements core.AgentBinding.
func (a *LocalAgent) Name() string { return a.name }

// Messages returns the instance's accumulated conversation memory.
func (a *LocalAgent) Messages() []core.Message { return a.memory.messages() }

// Invoke implements core.AgentBinding. Logic errors propagate to the
// scheduler as invocation failures; malformed logic output is recovered
// locally into a plain-content directive addressed to the default target and
// never surfaces as an error.
func (a *LocalAgent) Invoke(ictx *core.InvocationContext) (*core.Directive, error) {
	if ictx.Latest != nil {
		a.memory.record(*ictx.Latest)
	}

	raw, err := a.logic(ictx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	directive, err := ParseDirective(a.name, raw)
	if err != nil {
		a.logger.Warn("recovering malformed agent output", "agent", a.name, "error", err)
		directive = core.NewDirective(a.fallbackRecipient(), raw)
	}

	a.memory.record(core.NewMessage(a.name, directive.Recipient, directive.Content, ictx.WorkspaceID))
	return directive, nil
}

func (a *LocalAgent) fallbackRecipient() core.Recipient {
	to, err := core.ParseRecipient(a.defaultTarget)
	if err != nil {
		return core.User()
	}
	return to
}
