package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/llm"
)

// History renders the current session as provider messages. Assistant tool
// requests are summarised inline; tool results keep the tool role.
func (o *Orchestrator) History() []llm.Message {
	sess, ok := o.Current()
	if !ok {
		return nil
	}
	return RenderHistory(sess.Messages)
}

// RenderHistory converts chat messages to provider messages in order.
func RenderHistory(msgs []domain.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case domain.RoleSystem:
			out = append(out, llm.Message{Role: llm.RoleSystem, Content: m.Content})
		case domain.RoleTool:
			out = append(out, llm.Message{Role: llm.RoleTool, Name: m.Name, Content: m.Content})
		case domain.RoleAssistant:
			content := m.Content
			if m.ToolCall != nil {
				content = joinNonEmpty(content, summarizeCall(m.ToolCall))
			}
			if content == "" {
				continue
			}
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: content})
		}
	}
	return out
}

func summarizeCall(tc *domain.ToolCall) string {
	args, err := json.Marshal(tc.Parameters)
	if err != nil {
		args = []byte("{}")
	}
	return fmt.Sprintf("[tool call %s %s: %s]", tc.SkillName, args, tc.Status)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
