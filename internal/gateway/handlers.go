package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/wawa/internal/chat"
	"github.com/soyeahso/wawa/internal/llm"
)

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the authenticated RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Skills   int    `json:"skills,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

// handleHealth returns the server health status. Only status is exposed
// publicly; detailed info is available via the authenticated RPC health method.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Ctx    context.Context
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.RespondShape(ErrorShape{Code: code, Message: message})
}

// RespondShape sends an error response with a fully populated shape.
func (rc *RequestContext) RespondShape(shape ErrorShape) {
	if err := rc.Client.RespondError(rc.Frame.ID, shape); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send error response")
	}
}

// Fail maps err onto an error response.
func (rc *RequestContext) Fail(err error) {
	rc.RespondShape(errorShape(err))
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// errorShape classifies err for the client.
func errorShape(err error) ErrorShape {
	var pe *llm.ProviderError
	switch {
	case errors.As(err, &pe):
		return ErrorShape{
			Code:      CodeProvider,
			Message:   pe.UserMessage(),
			Retryable: pe.Retryable(),
			Details:   map[string]any{"provider": pe.Provider, "category": pe.Category},
		}
	case errors.Is(err, chat.ErrMessageNotFound), errors.Is(err, chat.ErrSessionNotFound):
		return ErrorShape{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, chat.ErrInvalidTransition), errors.Is(err, chat.ErrNoToolCall),
		errors.Is(err, chat.ErrInFlight), errors.Is(err, chat.ErrNoSession):
		return ErrorShape{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, chat.ErrUnknownSkill):
		return ErrorShape{Code: CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorShape{Code: CodeUnavailable, Message: "request timed out", Retryable: true}
	default:
		return ErrorShape{Code: CodeInternal, Message: err.Error()}
	}
}
