package core

// Directive is the engine-facing result of one agent invocation: a recipient
// specification plus content, or an explicit termination marker. A nil
// *Directive returned from an invocation means silence (no message emitted,
// the turn is still counted).
type Directive struct {
	Recipient Recipient `json:"send_to"`
	Content   string    `json:"content"`
	Terminate bool      `json:"-"`
}

// NewDirective builds a content directive addressed to the given recipient.
func NewDirective(to Recipient, content string) *Directive {
	return &Directive{Recipient: to, Content: content}
}

// TerminateDirective signals that the workspace conversation is complete.
func TerminateDirective() *Directive { return &Directive{Terminate: true} }
