package agent

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
)

// wireDirective is the free-form JSON shape agents emit:
// {"send_to": <name | "USER" | "ALL" | [names]>, "content": <text>}.
type wireDirective struct {
	SendTo  any `json:"send_to"`
	Content any `json:"content"`
}

// ParseDirective decodes raw agent output into a Directive. It tolerates the
// usual model-output noise: surrounding markdown code fences and JSON cut off
// by a token limit (repaired best-effort before decoding). Output that still
// cannot be decoded yields a *core.MalformedDirectiveError for the caller's
// recovery path; partially parsed state is never returned.
func ParseDirective(agentName, raw string) (*core.Directive, error) {
	cleaned := util.StripCodeFences(raw)
	if len(cleaned) == 0 || cleaned[0] != '{' {
		return nil, &core.MalformedDirectiveError{Agent: agentName, Raw: raw, Err: fmt.Errorf("output is not a JSON object")}
	}

	var wire wireDirective
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		repaired := util.RepairTruncatedJSON(cleaned)
		if rerr := json.Unmarshal([]byte(repaired), &wire); rerr != nil {
			return nil, &core.MalformedDirectiveError{Agent: agentName, Raw: raw, Err: err}
		}
	}

	if wire.SendTo == nil {
		return nil, &core.MalformedDirectiveError{Agent: agentName, Raw: raw, Err: fmt.Errorf("missing send_to field")}
	}

	to, err := core.ParseRecipient(wire.SendTo)
	if err != nil {
		return nil, &core.MalformedDirectiveError{Agent: agentName, Raw: raw, Err: err}
	}

	content, err := coerceContent(wire.Content)
	if err != nil {
		return nil, &core.MalformedDirectiveError{Agent: agentName, Raw: raw, Err: err}
	}

	return core.NewDirective(to, content), nil
}

// coerceContent renders the content field as text. Models occasionally emit
// structured content; re-marshaling keeps it intact instead of dropping it.
func coerceContent(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("missing content field")
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("unrenderable content field: %w", err)
		}
		return string(b), nil
	}
}
