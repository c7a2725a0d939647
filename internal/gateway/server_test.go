package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/wawa/internal/agent"
	"github.com/soyeahso/wawa/internal/chat"
	"github.com/soyeahso/wawa/internal/config"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/executor"
	"github.com/soyeahso/wawa/internal/hooks"
	"github.com/soyeahso/wawa/internal/llm"
	"github.com/soyeahso/wawa/internal/skill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token-123"

type harness struct {
	srv  *Server
	ts   *httptest.Server
	exec *executor.DryRunExecutor
	llm  *llm.MockChatter
}

// scriptedChatter answers each call with the next response; the last one repeats.
func scriptedChatter(responses ...*llm.ChatResponse) *llm.MockChatter {
	var n atomic.Int32
	return &llm.MockChatter{ChatFunc: func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
		i := int(n.Add(1)) - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		return responses[i], nil
	}}
}

func newHarness(t *testing.T, token string, chatter *llm.MockChatter) *harness {
	t.Helper()
	log := testLog()
	catalog := skill.NewBuiltinCatalog()
	exec := executor.NewDryRun(catalog, log)
	h := hooks.NewManager(log)
	orch := chat.New(catalog, exec, chat.WithHooks(h), chat.WithLogger(log))
	runner := agent.NewRunner(agent.RunnerConfig{}, orch, chatter, log)

	cfg := config.Defaults().Gateway
	cfg.Auth.Token = token
	raw := map[string]any{
		"provider": map[string]any{"type": "gemini", "apiKey": "secret"},
		"logging":  map[string]any{"level": "info"},
	}
	srv := New(cfg, runner, log,
		WithHooks(h),
		WithConfigRaw(raw),
		WithDefaultContext(domain.ExecuteContext{
			User:   domain.CurrentUser{TeacherID: "t-1", Name: "김선생"},
			Module: skill.ModuleReport,
		}),
	)

	mux := http.NewServeMux()
	srv.registerHTTPRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return &harness{srv: srv, ts: ts, exec: exec, llm: chatter}
}

func (h *harness) wsURL() string {
	return "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws"
}

// connect dials and completes the handshake with the token in the connect params.
func (h *harness) connect(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := handshake(t, conn, &ConnectAuth{Token: token})
	require.NotNil(t, hello.OK)
	require.True(t, *hello.OK, "handshake rejected: %+v", hello.Error)
	return conn
}

func handshake(t *testing.T, conn *websocket.Conn, auth *ConnectAuth) Frame {
	t.Helper()
	var challenge Frame
	require.NoError(t, conn.ReadJSON(&challenge))
	require.Equal(t, FrameTypeEvent, challenge.Type)
	require.Equal(t, "connect.challenge", challenge.Event)

	req, err := NewRequest("connect-1", "connect", ConnectParams{
		MinProtocol: 1,
		MaxProtocol: 1,
		Client:      ClientInfo{ID: "academy-ui", Version: "1.0.0", Platform: "web"},
		Auth:        auth,
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	var resp Frame
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, "connect-1", resp.ID)
	return resp
}

var reqSeq atomic.Int64

// call sends a request and reads frames until its response, returning the
// response and the events received in between.
func call(t *testing.T, conn *websocket.Conn, method string, params any) (Frame, []Frame) {
	t.Helper()
	id := fmt.Sprintf("req-%d", reqSeq.Add(1))
	req, err := NewRequest(id, method, params)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	var events []Frame
	for {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == FrameTypeEvent {
			events = append(events, f)
			continue
		}
		require.Equal(t, id, f.ID)
		return f, events
	}
}

func requireOK(t *testing.T, f Frame, target any) {
	t.Helper()
	require.NotNil(t, f.OK)
	require.True(t, *f.OK, "unexpected error: %+v", f.Error)
	if target != nil {
		require.NoError(t, json.Unmarshal(f.Payload, target))
	}
}

func requireErr(t *testing.T, f Frame, code string) *ErrorShape {
	t.Helper()
	require.NotNil(t, f.OK)
	require.False(t, *f.OK)
	require.NotNil(t, f.Error)
	assert.Equal(t, code, f.Error.Code)
	return f.Error
}

func eventNames(frames []Frame) []string {
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = f.Event
	}
	return names
}

// --- HTTP ---

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{Content: "hi"}))

	resp, err := http.Get(h.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	// Public endpoint only returns status.
	assert.Empty(t, health.Version)
}

func TestNotFoundEndpoint(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	resp, err := http.Get(h.ts.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- Handshake ---

func TestHandshake_TokenInConnectParams(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	conn, resp, err := websocket.DefaultDialer.Dial(h.wsURL(), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	f := handshake(t, conn, &ConnectAuth{Token: testToken})
	var hello HelloOK
	requireOK(t, f, &hello)
	assert.Equal(t, ProtocolVersion, hello.Protocol)
	assert.NotEmpty(t, hello.Server.ConnID)
	assert.Contains(t, hello.Features.Methods, "chat.send")
	assert.Contains(t, hello.Features.Events, hooks.EventToolCallPending)
	assert.Greater(t, hello.Policy.MaxPayload, 0)
}

func TestHandshake_BearerHeader(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	header := http.Header{"Authorization": []string{"Bearer " + testToken}}
	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL(), header)
	require.NoError(t, err)
	defer conn.Close()

	requireOK(t, handshake(t, conn, nil), nil)
}

func TestHandshake_QueryToken(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL()+"?token="+testToken, nil)
	require.NoError(t, err)
	defer conn.Close()

	requireOK(t, handshake(t, conn, nil), nil)
}

func TestHandshake_WrongQueryTokenRejectedBeforeUpgrade(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	_, resp, err := websocket.DefaultDialer.Dial(h.wsURL()+"?token=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshake_WrongToken(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL(), nil)
	require.NoError(t, err)
	defer conn.Close()

	shape := requireErr(t, handshake(t, conn, &ConnectAuth{Token: "wrong-token"}), CodeUnauthorized)
	assert.Equal(t, "token_mismatch", shape.Message)
}

func TestHandshake_MissingToken(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL(), nil)
	require.NoError(t, err)
	defer conn.Close()

	requireErr(t, handshake(t, conn, nil), CodeUnauthorized)
}

func TestHandshake_NoTokenConfigured(t *testing.T) {
	h := newHarness(t, "", scriptedChatter(&llm.ChatResponse{}))
	conn := h.connect(t, "")

	f, _ := call(t, conn, "health", nil)
	requireOK(t, f, nil)
}

func TestHandshake_RequiresConnectFirst(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL(), nil)
	require.NoError(t, err)
	defer conn.Close()

	var challenge Frame
	require.NoError(t, conn.ReadJSON(&challenge))
	req, _ := NewRequest("r1", "health", nil)
	require.NoError(t, conn.WriteJSON(req))

	var resp Frame
	require.NoError(t, conn.ReadJSON(&resp))
	requireErr(t, resp, CodeProtocol)
}

// --- RPC ---

func TestRPC_HealthAndUnknownMethod(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))
	conn := h.connect(t, testToken)

	f, _ := call(t, conn, "health", nil)
	var health HealthResponse
	requireOK(t, f, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Clients)
	assert.Equal(t, len(skill.Builtin()), health.Skills)

	f, _ = call(t, conn, "nope.method", nil)
	requireErr(t, f, CodeMethodNotFound)
}

func TestRPC_ConfigGet(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))
	conn := h.connect(t, testToken)

	f, _ := call(t, conn, "config.get", map[string]any{"key": "provider.type"})
	var got map[string]any
	requireOK(t, f, &got)
	assert.Equal(t, "gemini", got["value"])

	f, _ = call(t, conn, "config.get", map[string]any{"key": "provider.apiKey"})
	requireErr(t, f, CodeForbidden)

	f, _ = call(t, conn, "config.get", map[string]any{"key": "logging.file"})
	requireErr(t, f, CodeNotFound)

	f, _ = call(t, conn, "config.get", map[string]any{})
	requireErr(t, f, CodeInvalidParams)
}

func TestRPC_SkillsListAndSchemas(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))
	conn := h.connect(t, testToken)

	f, _ := call(t, conn, "skills.list", map[string]any{"module": skill.ModuleMakeup})
	var list struct {
		Skills []skill.Definition `json:"skills"`
	}
	requireOK(t, f, &list)
	require.NotEmpty(t, list.Skills)
	for _, d := range list.Skills {
		assert.Contains(t, []string{skill.ModuleMakeup, skill.SystemModule}, d.Module, d.Name)
	}

	f, _ = call(t, conn, "skills.list", nil)
	requireOK(t, f, &list)
	assert.Len(t, list.Skills, len(skill.Builtin()))

	f, _ = call(t, conn, "skills.schemas", map[string]any{"module": skill.ModuleMakeup})
	var schemas struct {
		Tools []llm.ToolSchema `json:"tools"`
	}
	requireOK(t, f, &schemas)
	want := skill.ToolSchemasForModule(skill.NewBuiltinCatalog(), skill.ModuleMakeup)
	assert.Len(t, schemas.Tools, len(want))
}

func TestRPC_ChatSendPlainReply(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{Content: "안녕하세요"}))
	conn := h.connect(t, testToken)

	f, events := call(t, conn, "chat.send", map[string]any{"message": "안녕"})
	var turn turnResponse
	requireOK(t, f, &turn)
	assert.Equal(t, "안녕하세요", turn.Reply)
	assert.NotEmpty(t, turn.SessionID)
	assert.Len(t, turn.Messages, 2)

	assert.Equal(t, []string{
		hooks.EventSessionStart,
		hooks.EventMessageAppended,
		hooks.EventMessageAppended,
	}, eventNames(events))
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}

	f, _ = call(t, conn, "chat.send", map[string]any{"message": "   "})
	requireErr(t, f, CodeInvalidParams)
}

func TestRPC_ChatConfirmFlow(t *testing.T) {
	chatter := scriptedChatter(
		&llm.ChatResponse{ToolCalls: []llm.ToolInvocation{{
			Name: "makeup.schedule",
			Arguments: map[string]any{
				"studentName": "홍길동",
				"subject":     "수학",
				"makeupDate":  "2026-03-12",
			},
		}}},
		&llm.ChatResponse{Content: "보강을 등록했습니다."},
	)
	h := newHarness(t, testToken, chatter)
	conn := h.connect(t, testToken)

	f, events := call(t, conn, "chat.send", map[string]any{"message": "홍길동 보강", "module": skill.ModuleMakeup})
	var turn turnResponse
	requireOK(t, f, &turn)
	require.Len(t, turn.Pending, 1)
	assert.Contains(t, eventNames(events), hooks.EventToolCallPending)
	assert.Empty(t, h.exec.Calls())

	id := turn.Pending[0].ID
	f, events = call(t, conn, "chat.confirm", map[string]any{"messageId": id, "module": skill.ModuleMakeup, "yearMonth": "2026-03"})
	var decision decisionResponse
	requireOK(t, f, &decision)
	assert.Equal(t, domain.StatusExecuted, decision.Message.ToolCall.Status)
	require.NotNil(t, decision.Message.ToolCall.Result)
	assert.True(t, decision.Message.ToolCall.Result.Success)
	require.NotNil(t, decision.Turn)
	assert.Equal(t, "보강을 등록했습니다.", decision.Turn.Reply)
	assert.Contains(t, eventNames(events), hooks.EventToolCallExecuted)

	calls := h.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "makeup.schedule", calls[0].Skill)
	assert.Equal(t, "홍길동", calls[0].Parameters["studentName"])
	assert.Equal(t, skill.ModuleMakeup, calls[0].Context.Module)
	assert.Equal(t, "2026-03", calls[0].Context.YearMonth)
	assert.Equal(t, "t-1", calls[0].Context.User.TeacherID)

	// A second decision on the same call is a conflict.
	f, _ = call(t, conn, "chat.confirm", map[string]any{"messageId": id})
	requireErr(t, f, CodeConflict)
}

func TestRPC_ChatReject(t *testing.T) {
	chatter := scriptedChatter(
		&llm.ChatResponse{ToolCalls: []llm.ToolInvocation{{
			Name:      "dm.send",
			Arguments: map[string]any{"teacherName": "이선생", "content": "내일 회의 있어요"},
		}}},
		&llm.ChatResponse{Content: "전송을 취소했습니다."},
	)
	h := newHarness(t, testToken, chatter)
	conn := h.connect(t, testToken)

	f, _ := call(t, conn, "chat.send", map[string]any{"message": "메시지 보내줘", "module": skill.ModuleDM})
	var turn turnResponse
	requireOK(t, f, &turn)
	require.Len(t, turn.Pending, 1)

	f, events := call(t, conn, "chat.reject", map[string]any{"messageId": turn.Pending[0].ID})
	var decision decisionResponse
	requireOK(t, f, &decision)
	assert.Equal(t, domain.StatusRejected, decision.Message.ToolCall.Status)
	require.NotNil(t, decision.Turn)
	assert.Equal(t, "전송을 취소했습니다.", decision.Turn.Reply)
	assert.Contains(t, eventNames(events), hooks.EventToolCallRejected)
	assert.Empty(t, h.exec.Calls())
}

// Confirming a call left pending in a background session resumes that
// session and leaves the newer one untouched.
func TestRPC_ConfirmInBackgroundSession(t *testing.T) {
	chatter := scriptedChatter(
		&llm.ChatResponse{ToolCalls: []llm.ToolInvocation{{
			Name: "makeup.schedule",
			Arguments: map[string]any{
				"studentName": "홍길동",
				"subject":     "수학",
				"makeupDate":  "2026-03-12",
			},
		}}},
		&llm.ChatResponse{Content: "보강을 등록했습니다."},
	)
	h := newHarness(t, testToken, chatter)
	conn := h.connect(t, testToken)

	f, _ := call(t, conn, "chat.send", map[string]any{"message": "홍길동 보강", "module": skill.ModuleMakeup})
	var turn turnResponse
	requireOK(t, f, &turn)
	require.Len(t, turn.Pending, 1)
	first := turn.SessionID

	f, _ = call(t, conn, "session.new", nil)
	var created struct {
		Session *domain.ChatSession `json:"session"`
	}
	requireOK(t, f, &created)
	require.NotNil(t, created.Session)
	second := created.Session.ID

	f, _ = call(t, conn, "chat.confirm", map[string]any{"messageId": turn.Pending[0].ID, "module": skill.ModuleMakeup})
	var decision decisionResponse
	requireOK(t, f, &decision)
	assert.Equal(t, domain.StatusExecuted, decision.Message.ToolCall.Status)
	require.NotNil(t, decision.Turn)
	assert.Equal(t, first, decision.Turn.SessionID)
	assert.Equal(t, "보강을 등록했습니다.", decision.Turn.Reply)

	reqs := h.llm.Requests()
	require.Len(t, reqs, 2)
	var sawUser bool
	for _, m := range reqs[1].Messages {
		if m.Role == llm.RoleUser && m.Content == "홍길동 보강" {
			sawUser = true
		}
	}
	assert.True(t, sawUser, "follow-up request should carry the first session's history")

	f, _ = call(t, conn, "session.list", nil)
	var list struct {
		Sessions []domain.ChatSession `json:"sessions"`
	}
	requireOK(t, f, &list)
	for _, sess := range list.Sessions {
		if sess.ID == second {
			assert.Empty(t, sess.Messages)
		}
	}

	f, _ = call(t, conn, "session.current", nil)
	var cur struct {
		Session *domain.ChatSession `json:"session"`
	}
	requireOK(t, f, &cur)
	require.NotNil(t, cur.Session)
	assert.Equal(t, first, cur.Session.ID)
}

func TestRPC_DecisionErrors(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{Content: "ok"}))
	conn := h.connect(t, testToken)

	f, _ := call(t, conn, "chat.confirm", map[string]any{})
	requireErr(t, f, CodeInvalidParams)

	f, _ = call(t, conn, "chat.reject", map[string]any{"messageId": "missing"})
	requireErr(t, f, CodeNotFound)
}

func TestRPC_ChatSendProviderError(t *testing.T) {
	chatter := &llm.MockChatter{ChatFunc: func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, &llm.ProviderError{Provider: "gemini", Category: llm.CategoryRateLimit, Code: 429, Message: "quota"}
	}}
	h := newHarness(t, testToken, chatter)
	conn := h.connect(t, testToken)

	f, events := call(t, conn, "chat.send", map[string]any{"message": "hi"})
	shape := requireErr(t, f, CodeProvider)
	assert.True(t, shape.Retryable)
	assert.Contains(t, eventNames(events), hooks.EventTurnFailed)
}

func TestRPC_Sessions(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{Content: "ok"}))
	conn := h.connect(t, testToken)

	type sessionPayload struct {
		Session *domain.ChatSession `json:"session"`
	}

	f, _ := call(t, conn, "session.current", nil)
	var cur sessionPayload
	requireOK(t, f, &cur)
	assert.Nil(t, cur.Session)

	f, _ = call(t, conn, "session.clear", nil)
	requireErr(t, f, CodeConflict)

	f, _ = call(t, conn, "chat.send", map[string]any{"message": "first"})
	var turn turnResponse
	requireOK(t, f, &turn)
	first := turn.SessionID

	f, _ = call(t, conn, "session.new", nil)
	var created sessionPayload
	requireOK(t, f, &created)
	require.NotNil(t, created.Session)
	assert.NotEqual(t, first, created.Session.ID)

	f, _ = call(t, conn, "session.list", nil)
	var list struct {
		Sessions []domain.ChatSession `json:"sessions"`
	}
	requireOK(t, f, &list)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, created.Session.ID, list.Sessions[0].ID)

	f, _ = call(t, conn, "session.select", map[string]any{"sessionId": first})
	var selected sessionPayload
	requireOK(t, f, &selected)
	assert.Equal(t, first, selected.Session.ID)
	assert.Len(t, selected.Session.Messages, 2)

	f, _ = call(t, conn, "session.clear", nil)
	var cleared sessionPayload
	requireOK(t, f, &cleared)
	assert.Equal(t, first, cleared.Session.ID)
	assert.Empty(t, cleared.Session.Messages)

	f, _ = call(t, conn, "session.select", map[string]any{"sessionId": "missing"})
	requireErr(t, f, CodeNotFound)
}

// --- Lifecycle ---

func TestStart_RequiresTokenBeyondLoopback(t *testing.T) {
	h := newHarness(t, "", scriptedChatter(&llm.ChatResponse{}))
	h.srv.cfg.Bind = "lan"

	err := h.srv.Start(context.Background())
	assert.ErrorIs(t, err, ErrTokenRequired)
}

func TestServe_ShutdownOnCancel(t *testing.T) {
	h := newHarness(t, testToken, scriptedChatter(&llm.ChatResponse{}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
