package domain

import (
	"maps"
	"time"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall is a model-requested skill invocation attached to an assistant message.
type ToolCall struct {
	SkillName  string         `json:"skillName"`
	Parameters map[string]any `json:"parameters"`
	Result     *SkillResult   `json:"result,omitempty"`
	Status     ToolCallStatus `json:"status"`
}

// Clone returns a deep copy of the call, sharing no maps with tc.
func (tc *ToolCall) Clone() *ToolCall {
	if tc == nil {
		return nil
	}
	out := *tc
	out.Parameters = maps.Clone(tc.Parameters)
	if tc.Result != nil {
		r := tc.Result.Clone()
		out.Result = &r
	}
	return &out
}

// ChatMessage is a single entry in a chat session. Only assistant messages
// carry a ToolCall.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Name is the skill name on tool-role messages.
	Name     string    `json:"name,omitempty"`
	ToolCall *ToolCall `json:"toolCall,omitempty"`
}

// Clone returns a deep copy of m.
func (m ChatMessage) Clone() ChatMessage {
	m.ToolCall = m.ToolCall.Clone()
	return m
}
