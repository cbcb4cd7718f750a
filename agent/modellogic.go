package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/model"
)

// directiveFormat is appended to every model prompt so replies come back as
// routable directives.
const directiveFormat = `Respond with a single JSON object of the form
{"send_to": <recipient>, "content": <your message>}.
<recipient> is the name of one teammate, a list of teammate names, "USER" to
report back to the user, or "ALL" to address every teammate at once.`

// ModelLogicOptions configures a model-backed logic function.
type ModelLogicOptions struct {
	// SystemPrompt describes the agent's role. It is combined with the
	// workspace roster and the directive format instructions.
	SystemPrompt string
	// IncludeSystemMessages includes bracketed coordination markers in the
	// conversation history sent to the model.
	IncludeSystemMessages bool
}

// ModelLogic adapts a model.Model into a LogicFunc. Each turn it replays the
// workspace conversation as chat history and asks the model for the next
// directive.
func ModelLogic(m model.Model, optFns ...func(o *ModelLogicOptions)) LogicFunc {
	opts := ModelLogicOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return func(ictx *core.InvocationContext) (string, error) {
		req := model.Request{
			Instructions: buildInstructions(ictx, opts.SystemPrompt),
			Messages:     buildHistory(ictx, opts.IncludeSystemMessages),
		}

		resp, err := m.Generate(ictx.Context, req)
		if err != nil {
			return "", fmt.Errorf("model %s: %w", m.Info().Name, err)
		}
		return resp.Text, nil
	}
}

func buildInstructions(ictx *core.InvocationContext, systemPrompt string) string {
	var b strings.Builder
	if systemPrompt != "" {
		b.WriteString(systemPrompt)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "You are %q.", ictx.AgentName)
	if peers := ictx.Peers(); len(peers) > 0 {
		fmt.Fprintf(&b, " Your teammates in this workspace: %s.", strings.Join(peers, ", "))
	}
	if ictx.SharedPlan != "" {
		b.WriteString("\n\nShared plan:\n")
		b.WriteString(ictx.SharedPlan)
	}
	b.WriteString("\n\n")
	b.WriteString(directiveFormat)
	return b.String()
}

func buildHistory(ictx *core.InvocationContext, includeSystem bool) []model.ChatMessage {
	history := ictx.ConversationHistory(core.WorkspaceScope, includeSystem)
	messages := make([]model.ChatMessage, 0, len(history))
	for _, msg := range history {
		role := model.RoleUser
		if msg.From == ictx.AgentName {
			role = model.RoleAssistant
		}
		content := msg.Content
		if role == model.RoleUser {
			content = fmt.Sprintf("%s: %s", msg.From, msg.Content)
		}
		messages = append(messages, model.ChatMessage{Role: role, Content: content})
	}
	return messages
}
