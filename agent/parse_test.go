package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
)

func TestParseDirective_PlainJSON(t *testing.T) {
	d, err := ParseDirective("A", `{"send_to": "B", "content": "hello"}`)
	require.NoError(t, err)
	assert.Equal(t, "B", d.Recipient.String())
	assert.Equal(t, "hello", d.Content)
}

func TestParseDirective_WireShapes(t *testing.T) {
	d, err := ParseDirective("A", `{"send_to": "USER", "content": "done"}`)
	require.NoError(t, err)
	assert.True(t, d.Recipient.IsUser())

	d, err = ParseDirective("A", `{"send_to": ["B", "C"], "content": "fan out"}`)
	require.NoError(t, err)
	assert.Equal(t, core.RecipientBroadcast, d.Recipient.Kind)

	d, err = ParseDirective("A", `{"send_to": "ALL", "content": "everyone"}`)
	require.NoError(t, err)
	assert.True(t, d.Recipient.IsAll())
}

func TestParseDirective_CodeFences(t *testing.T) {
	raw := "```json\n{\"send_to\": \"B\", \"content\": \"fenced\"}\n```"
	d, err := ParseDirective("A", raw)
	require.NoError(t, err)
	assert.Equal(t, "fenced", d.Content)
}

func TestParseDirective_RepairsTruncatedOutput(t *testing.T) {
	d, err := ParseDirective("A", `{"send_to": "B", "content": "cut off mid sen`)
	require.NoError(t, err)
	assert.Equal(t, "B", d.Recipient.String())
	assert.Equal(t, "cut off mid sen", d.Content)
}

func TestParseDirective_StructuredContentKeptIntact(t *testing.T) {
	d, err := ParseDirective("A", `{"send_to": "B", "content": {"items": [1, 2]}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [1, 2]}`, d.Content)
}

func TestParseDirective_MalformedOutput(t *testing.T) {
	for _, raw := range []string{
		"just prose, no JSON at all",
		`{"content": "missing send_to"}`,
		`{"send_to": "B"}`,
		`{"send_to": 42, "content": "bad recipient"}`,
	} {
		_, err := ParseDirective("A", raw)
		var merr *core.MalformedDirectiveError
		require.ErrorAs(t, err, &merr, raw)
		assert.Equal(t, "A", merr.Agent)
		assert.Equal(t, raw, merr.Raw)
	}
}

func TestLocalAgent_InvokeParsesDirective(t *testing.T) {
	def := NewLocal("A", func(ictx *core.InvocationContext) (string, error) {
		return `{"send_to": "B", "content": "hi"}`, nil
	})
	binding := def.New()

	d, err := binding.Invoke(&core.InvocationContext{AgentName: "A"})
	require.NoError(t, err)
	assert.Equal(t, "B", d.Recipient.String())
}

func TestLocalAgent_RecoversMalformedOutput(t *testing.T) {
	def := NewLocal("A", func(ictx *core.InvocationContext) (string, error) {
		return "I forgot the directive format entirely", nil
	})
	binding := def.New()

	d, err := binding.Invoke(&core.InvocationContext{AgentName: "A"})
	require.NoError(t, err)
	assert.True(t, d.Recipient.IsUser())
	assert.Equal(t, "I forgot the directive format entirely", d.Content)
}

func TestLocalAgent_RecoveryUsesDefaultTarget(t *testing.T) {
	def := NewLocal("A", func(ictx *core.InvocationContext) (string, error) {
		return "plain text", nil
	}, func(o *LocalOptions) {
		o.DefaultTarget = "Coordinator"
	})
	binding := def.New()

	d, err := binding.Invoke(&core.InvocationContext{AgentName: "A"})
	require.NoError(t, err)
	assert.Equal(t, "Coordinator", d.Recipient.String())
}

func TestLocalAgent_EmptyOutputIsSilence(t *testing.T) {
	def := NewLocal("A", func(ictx *core.InvocationContext) (string, error) {
		return "", nil
	})
	binding := def.New()

	d, err := binding.Invoke(&core.InvocationContext{AgentName: "A"})
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestLocalAgent_LogicErrorPropagates(t *testing.T) {
	def := NewLocal("A", func(ictx *core.InvocationContext) (string, error) {
		return "", assert.AnError
	})
	binding := def.New()

	_, err := binding.Invoke(&core.InvocationContext{AgentName: "A"})
	require.ErrorIs(t, err, assert.AnError)
}

func TestLocalAgent_FreshInstancesShareNoMemory(t *testing.T) {
	def := NewLocal("A", func(ictx *core.InvocationContext) (string, error) {
		return `{"send_to": "USER", "content": "noted"}`, nil
	})

	first := def.New().(*LocalAgent)
	second := def.New().(*LocalAgent)

	latest := core.NewMessage("USER", core.Single("A"), "remember this", "th")
	_, err := first.Invoke(&core.InvocationContext{AgentName: "A", Latest: &latest})
	require.NoError(t, err)

	assert.Len(t, first.Messages(), 2)
	assert.Empty(t, second.Messages())
}
