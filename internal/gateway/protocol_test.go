package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/soyeahso/wawa/internal/chat"
	"github.com/soyeahso/wawa/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	frame, err := NewRequest("req-1", "chat.send", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeRequest, frame.Type)
	assert.Equal(t, "req-1", frame.ID)
	assert.Equal(t, "chat.send", frame.Method)
	assert.JSONEq(t, `{"message":"hi"}`, string(frame.Params))
}

func TestNewResponse(t *testing.T) {
	frame, err := NewResponse("req-1", map[string]string{"status": "ok"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeResponse, frame.Type)
	require.NotNil(t, frame.OK)
	assert.True(t, *frame.OK)
	assert.Nil(t, frame.Error)
}

func TestNewErrorResponse(t *testing.T) {
	frame := NewErrorResponse("req-2", ErrorShape{Code: CodeNotFound, Message: "gone"})
	require.NotNil(t, frame.OK)
	assert.False(t, *frame.OK)
	require.NotNil(t, frame.Error)
	assert.Equal(t, CodeNotFound, frame.Error.Code)

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "payload")
	assert.NotContains(t, string(data), "retryable")
}

func TestNewEvent(t *testing.T) {
	frame, err := NewEvent("tool_call_pending", map[string]any{"messageId": "m1"}, 7)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeEvent, frame.Type)
	assert.Equal(t, "tool_call_pending", frame.Event)
	assert.Equal(t, int64(7), frame.Seq)
}

func TestConnectParams_OmitsNilAuth(t *testing.T) {
	data, err := json.Marshal(ConnectParams{MinProtocol: 1, MaxProtocol: 1, Client: ClientInfo{ID: "ui"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"auth"`)
}

func TestErrorShapeFor(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      string
		retryable bool
	}{
		{"rate limit", &llm.ProviderError{Provider: "gemini", Category: llm.CategoryRateLimit, Code: 429}, CodeProvider, true},
		{"auth", &llm.ProviderError{Provider: "claude", Category: llm.CategoryAuth, Code: 401}, CodeProvider, false},
		{"wrapped provider", fmt.Errorf("turn: %w", &llm.ProviderError{Category: llm.CategoryUnavailable}), CodeProvider, true},
		{"not found", fmt.Errorf("%w: m1", chat.ErrMessageNotFound), CodeNotFound, false},
		{"session not found", fmt.Errorf("%w: s1", chat.ErrSessionNotFound), CodeNotFound, false},
		{"transition", fmt.Errorf("%w: executed -> confirmed", chat.ErrInvalidTransition), CodeConflict, false},
		{"in flight", chat.ErrInFlight, CodeConflict, false},
		{"no session", chat.ErrNoSession, CodeConflict, false},
		{"unknown skill", chat.ErrUnknownSkill, CodeInvalidParams, false},
		{"timeout", context.DeadlineExceeded, CodeUnavailable, true},
		{"other", fmt.Errorf("disk on fire"), CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := errorShape(tt.err)
			assert.Equal(t, tt.code, shape.Code)
			assert.Equal(t, tt.retryable, shape.Retryable)
			assert.NotEmpty(t, shape.Message)
		})
	}
}
