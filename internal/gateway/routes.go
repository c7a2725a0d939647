package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/wawa/internal/agent"
	"github.com/soyeahso/wawa/internal/config"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/llm"
	"github.com/soyeahso/wawa/internal/skill"
)

// readableConfigPrefixes lists config paths the config.get method may read.
// Secrets such as provider.apiKey and gateway.auth are never exposed.
var readableConfigPrefixes = []string{
	"provider.type",
	"provider.model",
	"skills",
	"executor.mode",
	"agent",
	"gateway.port",
	"gateway.bind",
	"gateway.allowedOrigins",
	"logging",
	"user",
}

func isReadableConfigPath(key string) bool {
	for _, prefix := range readableConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

// turnTimeout bounds a whole chat turn including tool execution.
const turnTimeout = 5 * time.Minute

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("config.get", s.rpcConfigGet)
	s.Handle("skills.list", s.rpcSkillsList)
	s.Handle("skills.schemas", s.rpcSkillsSchemas)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("chat.confirm", s.rpcChatConfirm)
	s.Handle("chat.reject", s.rpcChatReject)
	s.Handle("session.new", s.rpcSessionNew)
	s.Handle("session.clear", s.rpcSessionClear)
	s.Handle("session.list", s.rpcSessionList)
	s.Handle("session.current", s.rpcSessionCurrent)
	s.Handle("session.select", s.rpcSessionSelect)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
		Skills:  s.runner.Orchestrator().Catalog().Len(),
	}
	if !s.startedAt.IsZero() {
		resp.UptimeMs = time.Since(s.startedAt).Milliseconds()
	}
	rc.Respond(resp)
}

type configGetParams struct {
	Key string `json:"key"`
}

func (s *Server) rpcConfigGet(rc *RequestContext) {
	var p configGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.Key == "" {
		rc.RespondError(CodeInvalidParams, "key is required")
		return
	}
	if !isReadableConfigPath(p.Key) {
		rc.RespondError(CodeForbidden, "access denied for config path: "+p.Key)
		return
	}

	path, err := config.ParseConfigPath(p.Key)
	if err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}

	s.mu.RLock()
	val, ok := config.GetValueAtPath(s.configRaw, path)
	s.mu.RUnlock()
	if !ok {
		rc.RespondError(CodeNotFound, "key not found: "+p.Key)
		return
	}
	rc.Respond(map[string]any{"key": p.Key, "value": val})
}

type moduleParams struct {
	Module string `json:"module,omitempty"`
}

func (s *Server) rpcSkillsList(rc *RequestContext) {
	var p moduleParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	catalog := s.runner.Orchestrator().Catalog()
	defs := catalog.ListAll()
	if p.Module != "" {
		defs = catalog.ListByModule(p.Module)
	}
	rc.Respond(map[string]any{"skills": defs})
}

func (s *Server) rpcSkillsSchemas(rc *RequestContext) {
	var p moduleParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	rc.Respond(map[string]any{
		"tools": skill.ToolSchemasForModule(s.runner.Orchestrator().Catalog(), p.Module),
	})
}

// turnContext lets a request narrow the execution context to the screen
// the teacher is on.
type turnContext struct {
	Module    string `json:"module,omitempty"`
	YearMonth string `json:"yearMonth,omitempty"`
}

func (s *Server) executeContext(tc turnContext) domain.ExecuteContext {
	ectx := s.defaults
	if tc.Module != "" {
		ectx.Module = tc.Module
	}
	if tc.YearMonth != "" {
		ectx.YearMonth = tc.YearMonth
	}
	return ectx
}

// turnResponse is the wire form of agent.TurnResult.
type turnResponse struct {
	SessionID  string               `json:"sessionId"`
	Messages   []domain.ChatMessage `json:"messages"`
	Pending    []domain.ChatMessage `json:"pending,omitempty"`
	Reply      string               `json:"reply,omitempty"`
	Model      string               `json:"model,omitempty"`
	Usage      llm.Usage            `json:"usage"`
	CostUSD    float64              `json:"costUsd,omitempty"`
	Rounds     int                  `json:"rounds"`
	DurationMs int64                `json:"durationMs"`
}

func newTurnResponse(t *agent.TurnResult) turnResponse {
	return turnResponse{
		SessionID:  t.SessionID,
		Messages:   t.Messages,
		Pending:    t.Pending,
		Reply:      t.Reply,
		Model:      t.Model,
		Usage:      t.Usage,
		CostUSD:    t.CostUSD,
		Rounds:     t.Rounds,
		DurationMs: t.Duration.Milliseconds(),
	}
}

type chatSendParams struct {
	Message string `json:"message"`
	turnContext
}

func (s *Server) rpcChatSend(rc *RequestContext) {
	var p chatSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if strings.TrimSpace(p.Message) == "" {
		rc.RespondError(CodeInvalidParams, "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(rc.Ctx, turnTimeout)
	defer cancel()

	result, err := s.runner.Send(ctx, p.Message, s.executeContext(p.turnContext))
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(newTurnResponse(result))
}

type decisionParams struct {
	MessageID string `json:"messageId"`
	// NoResume skips continuing the turn after the decision.
	NoResume bool `json:"noResume,omitempty"`
	turnContext
}

type decisionResponse struct {
	Message domain.ChatMessage `json:"message"`
	Turn    *turnResponse      `json:"turn,omitempty"`
}

func (s *Server) rpcChatConfirm(rc *RequestContext) { s.decide(rc, true) }

func (s *Server) rpcChatReject(rc *RequestContext) { s.decide(rc, false) }

func (s *Server) decide(rc *RequestContext, approve bool) {
	var p decisionParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.MessageID == "" {
		rc.RespondError(CodeInvalidParams, "messageId is required")
		return
	}

	ctx, cancel := context.WithTimeout(rc.Ctx, turnTimeout)
	defer cancel()
	ectx := s.executeContext(p.turnContext)

	msg, err := s.runner.Decide(ctx, p.MessageID, approve, ectx)
	if err != nil {
		rc.Fail(err)
		return
	}
	resp := decisionResponse{Message: msg}
	if p.NoResume {
		rc.Respond(resp)
		return
	}

	turn, err := s.runner.Resume(ctx, ectx)
	if err != nil {
		rc.Fail(err)
		return
	}
	tr := newTurnResponse(turn)
	resp.Turn = &tr
	rc.Respond(resp)
}

func (s *Server) rpcSessionNew(rc *RequestContext) {
	rc.Respond(map[string]any{"session": s.runner.Orchestrator().NewSession()})
}

func (s *Server) rpcSessionClear(rc *RequestContext) {
	sess, err := s.runner.Orchestrator().ClearSession()
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"session": sess})
}

func (s *Server) rpcSessionList(rc *RequestContext) {
	rc.Respond(map[string]any{"sessions": s.runner.Orchestrator().Sessions()})
}

func (s *Server) rpcSessionCurrent(rc *RequestContext) {
	sess, ok := s.runner.Orchestrator().Current()
	if !ok {
		rc.Respond(map[string]any{"session": nil})
		return
	}
	rc.Respond(map[string]any{"session": sess})
}

type sessionSelectParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) rpcSessionSelect(rc *RequestContext) {
	var p sessionSelectParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	sess, err := s.runner.Orchestrator().Select(p.SessionID)
	if err != nil {
		rc.Fail(err)
		return
	}
	rc.Respond(map[string]any{"session": sess})
}
