package util

import (
	"encoding/json"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                         `{"a":1}`,
		"```json\n{\"a\":1}\n```":           `{"a":1}`,
		"```\n{\"a\":1}\n```":               `{"a":1}`,
		"  ```JSON\n{\"a\": \"b\"}\n```  ":  `{"a": "b"}`,
		"plain text, no fence":              "plain text, no fence",
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRepairTruncatedJSON(t *testing.T) {
	cases := []string{
		`{"send_to": "USER", "content": "cut off mid sen`,
		`{"send_to": "USER", "content": "done",`,
		`{"send_to": ["A", "B"`,
		`{"outer": {"inner": "x`,
	}
	for _, in := range cases {
		repaired := RepairTruncatedJSON(in)
		var v any
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			t.Errorf("RepairTruncatedJSON(%q) = %q, still invalid: %v", in, repaired, err)
		}
	}

	// Complete documents and non-JSON text pass through untouched.
	if got := RepairTruncatedJSON(`{"a": 1}`); got != `{"a": 1}` {
		t.Errorf("complete document changed: %q", got)
	}
	if got := RepairTruncatedJSON("not json"); got != "not json" {
		t.Errorf("non-JSON input changed: %q", got)
	}
}
