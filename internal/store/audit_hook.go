package store

import (
	"context"
	"fmt"

	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/hooks"
)

const auditHookName = "store.audit"

// AttachAudit records every tool-call decision emitted on h into s.
func AttachAudit(h *hooks.Manager, s *AuditStore) {
	for _, event := range []string{
		hooks.EventToolCallConfirmed,
		hooks.EventToolCallRejected,
		hooks.EventToolCallExecuted,
	} {
		h.On(event, auditHookName, s.handle)
	}
}

// DetachAudit removes the handlers installed by AttachAudit.
func DetachAudit(h *hooks.Manager) {
	h.Off(hooks.EventToolCallConfirmed, auditHookName)
	h.Off(hooks.EventToolCallRejected, auditHookName)
	h.Off(hooks.EventToolCallExecuted, auditHookName)
}

func (s *AuditStore) handle(ctx context.Context, p hooks.Payload) error {
	msg, ok := p.Data["message"].(domain.ChatMessage)
	if !ok || msg.ToolCall == nil {
		return fmt.Errorf("%s: payload has no tool call message", p.Event)
	}
	sessionID, _ := p.Data["sessionId"].(string)

	e := AuditEntry{
		SessionID:  sessionID,
		MessageID:  msg.ID,
		Skill:      msg.ToolCall.SkillName,
		Parameters: msg.ToolCall.Parameters,
		Status:     string(msg.ToolCall.Status),
	}
	if r := msg.ToolCall.Result; r != nil {
		success := r.Success
		e.Success = &success
		e.Error = r.Error
	}
	_, err := s.Record(ctx, e)
	return err
}
