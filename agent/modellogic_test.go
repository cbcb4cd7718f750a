package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/model"
)

func modelContext(history []core.Message) *core.InvocationContext {
	return &core.InvocationContext{
		Context:     context.Background(),
		WorkspaceID: "ws-1",
		AgentName:   "Writer",
		Roster:      []string{"Writer", "Reviewer"},
		History: func(scope core.HistoryScope, includeSystem bool) []core.Message {
			return history
		},
	}
}

func TestModelLogic_ReplaysHistoryAsChat(t *testing.T) {
	m := model.NewMockModel("test-model")
	m.AddResponse("Reviewer: needs a stronger verb", `{"send_to": "Reviewer", "content": "second draft"}`)

	logic := ModelLogic(m, func(o *ModelLogicOptions) {
		o.SystemPrompt = "You write copy."
	})

	history := []core.Message{
		core.NewMessage("USER", core.Single("Writer"), "write a tagline", "th"),
		core.NewMessage("Writer", core.Single("Reviewer"), "first draft", "th"),
		core.NewMessage("Reviewer", core.Single("Writer"), "needs a stronger verb", "th"),
	}

	raw, err := logic(modelContext(history))
	require.NoError(t, err)

	d, err := ParseDirective("Writer", raw)
	require.NoError(t, err)
	assert.Equal(t, "Reviewer", d.Recipient.String())
	assert.Equal(t, "second draft", d.Content)
}

func TestModelLogic_InstructionsNameTeammates(t *testing.T) {
	var captured model.Request
	m := capturingModel{req: &captured}

	logic := ModelLogic(m, func(o *ModelLogicOptions) {
		o.SystemPrompt = "You write copy."
	})

	history := []core.Message{core.NewMessage("USER", core.Single("Writer"), "go", "th")}
	_, err := logic(modelContext(history))
	require.NoError(t, err)

	assert.Contains(t, captured.Instructions, "You write copy.")
	assert.Contains(t, captured.Instructions, `"Writer"`)
	assert.Contains(t, captured.Instructions, "Reviewer")
	assert.Contains(t, captured.Instructions, "send_to")

	// The agent's own messages replay as assistant turns, peers as user turns.
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, model.RoleUser, captured.Messages[0].Role)
	assert.Equal(t, "USER: go", captured.Messages[0].Content)
}

func TestModelLogic_OwnMessagesAreAssistantTurns(t *testing.T) {
	var captured model.Request
	logic := ModelLogic(capturingModel{req: &captured})

	history := []core.Message{
		core.NewMessage("Writer", core.Single("Reviewer"), "draft", "th"),
		core.NewMessage("Reviewer", core.Single("Writer"), "feedback", "th"),
	}
	_, err := logic(modelContext(history))
	require.NoError(t, err)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, model.RoleAssistant, captured.Messages[0].Role)
	assert.Equal(t, "draft", captured.Messages[0].Content)
	assert.Equal(t, model.RoleUser, captured.Messages[1].Role)
}

func TestModelLogic_GenerateErrorPropagates(t *testing.T) {
	logic := ModelLogic(failingModel{})
	_, err := logic(modelContext(nil))
	require.ErrorIs(t, err, assert.AnError)
}

type capturingModel struct{ req *model.Request }

func (m capturingModel) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	*m.req = req
	return &model.Response{Text: `{"send_to": "USER", "content": "ok"}`, FinishReason: "stop"}, nil
}

func (m capturingModel) Info() model.Info { return model.Info{Name: "capture", Provider: "mock"} }

type failingModel struct{}

func (failingModel) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	return nil, assert.AnError
}

func (failingModel) Info() model.Info { return model.Info{Name: "fail", Provider: "mock"} }
