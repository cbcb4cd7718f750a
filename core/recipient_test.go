package core

import (
	"encoding/json"
	"testing"
)

func TestParseRecipient_Strings(t *testing.T) {
	r, err := ParseRecipient("Writer")
	if err != nil || r.Kind != RecipientSingle || r.String() != "Writer" {
		t.Fatalf("single parse failed: %+v %v", r, err)
	}

	r, err = ParseRecipient("USER")
	if err != nil || !r.IsUser() {
		t.Fatalf("USER sentinel not recognized: %+v %v", r, err)
	}

	r, err = ParseRecipient("all")
	if err != nil || !r.IsAll() {
		t.Fatalf("ALL sentinel should be case-insensitive: %+v %v", r, err)
	}

	if _, err := ParseRecipient("   "); err == nil {
		t.Fatal("blank recipient should fail")
	}
}

func TestParseRecipient_Lists(t *testing.T) {
	r, err := ParseRecipient([]string{"A", "B"})
	if err != nil || r.Kind != RecipientBroadcast || len(r.Names) != 2 {
		t.Fatalf("broadcast parse failed: %+v %v", r, err)
	}

	// A single-entry list collapses to the string rules, sentinels included.
	r, err = ParseRecipient([]any{"USER"})
	if err != nil || !r.IsUser() {
		t.Fatalf("single-entry list should collapse: %+v %v", r, err)
	}

	if _, err := ParseRecipient([]string{}); err == nil {
		t.Fatal("empty list should fail")
	}
	if _, err := ParseRecipient([]any{"A", 7}); err == nil {
		t.Fatal("non-string list entry should fail")
	}
	if _, err := ParseRecipient(42); err == nil {
		t.Fatal("unsupported type should fail")
	}
}

func TestRecipient_JSONWireShape(t *testing.T) {
	b, err := json.Marshal(Broadcast("A", "B"))
	if err != nil || string(b) != `["A","B"]` {
		t.Fatalf("broadcast should marshal as a list: %s %v", b, err)
	}

	b, err = json.Marshal(User())
	if err != nil || string(b) != `"USER"` {
		t.Fatalf("USER should marshal as a string: %s %v", b, err)
	}

	var r Recipient
	if err := json.Unmarshal([]byte(`["A","B","C"]`), &r); err != nil || r.Kind != RecipientBroadcast {
		t.Fatalf("list unmarshal failed: %+v %v", r, err)
	}
	if err := json.Unmarshal([]byte(`"ALL"`), &r); err != nil || !r.IsAll() {
		t.Fatalf("sentinel unmarshal failed: %+v %v", r, err)
	}
}
