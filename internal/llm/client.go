// Package llm defines the provider abstraction used to talk to language models.
//
// A conversation plus the tools the model may call goes in; generated text and
// requested tool invocations come out. Every backend normalizes its own wire
// format into these types so callers never parse vendor-specific payloads.
package llm

import (
	"context"
	"time"
)

// Role constants for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name is the skill name on tool-result messages.
	Name string `json:"name,omitempty"`
}

// PropertySchema describes one tool parameter in JSON-Schema form.
type PropertySchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Format      string   `json:"format,omitempty"`
}

// ObjectSchema is the parameter object of a tool.
type ObjectSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// ToolSchema is the vendor-neutral function declaration handed to a provider.
type ToolSchema struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  ObjectSchema `json:"parameters"`
}

// ChatRequest is the input to Chat.
type ChatRequest struct {
	Model       string       `json:"model,omitempty"`
	Messages    []Message    `json:"messages"`
	Tools       []ToolSchema `json:"tools,omitempty"`
	MaxTokens   int          `json:"maxTokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

// ChatResponse is the flattened result of a Chat call.
type ChatResponse struct {
	Content    string           `json:"content"`
	ToolCalls  []ToolInvocation `json:"toolCalls,omitempty"`
	Usage      *Usage           `json:"usage,omitempty"`
	Model      string           `json:"model,omitempty"`
	StopReason string           `json:"stopReason,omitempty"`
	Duration   time.Duration    `json:"duration,omitempty"`
}

// ToolInvocation is a model request to invoke a tool.
type ToolInvocation struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Chatter is anything that can answer a ChatRequest. *Provider satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// splitSystem separates system-role messages from the turn-by-turn history.
// Multiple system messages are joined with a blank line.
func splitSystem(msgs []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

// toolResultText renders a tool-role message as plain text for backends that
// receive tool results as user turns.
func toolResultText(m Message) string {
	if m.Name == "" {
		return "[tool result] " + m.Content
	}
	return "[tool result: " + m.Name + "] " + m.Content
}
