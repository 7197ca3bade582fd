// Package llm wraps the chat-completion backends the bot can talk to behind
// one Provider interface, plus decorators for retries, concurrency limits
// and request logging.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one request to a language model.
type Provider interface {
	// Generate returns the model's reply. When req.Schema is set the reply is
	// JSON that has already been checked against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Schema asks for a JSON reply. Nil means free text.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt is the common single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema is a JSON Schema document the reply must satisfy.
type Schema struct {
	Name       string
	Definition map[string]any
}

type Response struct {
	// Content is the reply text. For schema requests it is the bare JSON
	// document with any markdown fence removed.
	Content    string
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

// Decode unmarshals a JSON reply into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.Content), v); err != nil {
		return &ErrInvalidResponse{Content: r.Content, Err: err}
	}
	return nil
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}
