package model

import (
	"context"
	"fmt"
	"sync"
)

// Chat message roles understood by all provider adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn of provider-neutral chat input.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized model input produced by agent logic.
type Request struct {
	// Instructions becomes the provider's system prompt.
	Instructions string        `json:"instructions"`
	Messages     []ChatMessage `json:"messages"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed text emitted by a model.
type Response struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"` // "stop", "length", etc.
	Usage        *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agent logic to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replies with canned completions keyed by the latest message content, falling
// back to a scripted sequence when no canned match exists.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []string
	cursor    int
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Script appends responses replayed in order when no canned match exists.
func (m *MockModel) Script(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	last := req.Messages[len(req.Messages)-1].Content
	if text, ok := m.responses[last]; ok {
		return &Response{Text: text, FinishReason: "stop"}, nil
	}
	if m.cursor < len(m.script) {
		text := m.script[m.cursor]
		m.cursor++
		return &Response{Text: text, FinishReason: "stop"}, nil
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", last), FinishReason: "stop"}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
