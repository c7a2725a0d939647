// Package chat owns chat sessions and the confirmation state machine of the
// tool calls requested inside them.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/hooks"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/soyeahso/wawa/internal/skill"
)

// DefaultTitle is the title of a freshly created session.
const DefaultTitle = "새 채팅"

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHooks emits lifecycle events to h.
func WithHooks(h *hooks.Manager) Option {
	return func(o *Orchestrator) { o.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides how session and message ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) { o.newID = gen }
}

// Orchestrator holds the sessions of one user and drives tool calls through
// pending -> confirmed -> executed or pending -> rejected.
//
// All state lives behind mu. Executor calls happen outside the lock; a message
// whose executor call is running is marked in-flight and cannot be executed or
// resolved again until it returns.
type Orchestrator struct {
	catalog  *skill.Catalog
	executor Executor
	hooks    *hooks.Manager
	log      *logging.Logger
	now      func() time.Time
	newID    func() string

	mu       sync.Mutex
	sessions []*domain.ChatSession // newest first
	current  *domain.ChatSession
	inFlight map[string]bool
}

// New creates an orchestrator resolving skills through catalog and running
// confirmed calls through executor.
func New(catalog *skill.Catalog, executor Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:  catalog,
		executor: executor,
		log:      logging.Nop(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Sub("chat")
	return o
}

// Catalog returns the skill catalog used to resolve tool calls.
func (o *Orchestrator) Catalog() *skill.Catalog { return o.catalog }

// SendMessage appends a user message to the current session, creating one if needed.
func (o *Orchestrator) SendMessage(text string) domain.ChatMessage {
	o.mu.Lock()
	var events []event
	sess := o.current
	if sess == nil {
		sess = o.newSessionLocked()
		events = append(events, sessionEvent(hooks.EventSessionStart, sess))
	}
	msg := o.appendLocked(sess, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	events = append(events, messageEvent(hooks.EventMessageAppended, sess, msg))
	o.mu.Unlock()

	o.emit(events...)
	return msg
}

// AddAssistantMessage appends an assistant message to the current session.
// With a tool request, skills that require confirmation start pending and all
// others start confirmed. An unknown skill appends nothing.
func (o *Orchestrator) AddAssistantMessage(content string, req *ToolRequest) (domain.ChatMessage, error) {
	msg := domain.ChatMessage{Role: domain.RoleAssistant, Content: content}
	if req != nil {
		def, ok := o.catalog.Get(req.SkillName)
		if !ok {
			return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrUnknownSkill, req.SkillName)
		}
		status := domain.StatusConfirmed
		if def.RequiresConfirmation {
			status = domain.StatusPending
		}
		params := maps.Clone(req.Parameters)
		if params == nil {
			params = map[string]any{}
		}
		msg.ToolCall = &domain.ToolCall{
			SkillName:  def.Name,
			Parameters: params,
			Status:     status,
		}
	}

	o.mu.Lock()
	var events []event
	sess := o.current
	if sess == nil {
		sess = o.newSessionLocked()
		events = append(events, sessionEvent(hooks.EventSessionStart, sess))
	}
	msg = o.appendLocked(sess, msg)
	events = append(events, messageEvent(hooks.EventMessageAppended, sess, msg))
	if msg.ToolCall != nil {
		switch msg.ToolCall.Status {
		case domain.StatusPending:
			events = append(events, messageEvent(hooks.EventToolCallPending, sess, msg))
		case domain.StatusConfirmed:
			ev := messageEvent(hooks.EventToolCallConfirmed, sess, msg)
			ev.data["auto"] = true
			events = append(events, ev)
		}
	}
	o.mu.Unlock()

	if msg.ToolCall != nil {
		o.log.Debug().
			Str("skill", msg.ToolCall.SkillName).
			Str("messageId", msg.ID).
			Str("status", string(msg.ToolCall.Status)).
			Msg("tool call requested")
	}
	o.emit(events...)
	return msg, nil
}

// AddToolNote appends a tool message to the current session, creating one if
// needed. It tells the model about a request that could not be honored.
func (o *Orchestrator) AddToolNote(name, content string) domain.ChatMessage {
	o.mu.Lock()
	var events []event
	sess := o.current
	if sess == nil {
		sess = o.newSessionLocked()
		events = append(events, sessionEvent(hooks.EventSessionStart, sess))
	}
	msg := o.appendLocked(sess, domain.ChatMessage{Role: domain.RoleTool, Name: name, Content: content})
	events = append(events, messageEvent(hooks.EventMessageAppended, sess, msg))
	o.mu.Unlock()

	o.emit(events...)
	return msg
}

// ConfirmToolCall approves a pending tool call.
func (o *Orchestrator) ConfirmToolCall(id string) (domain.ChatMessage, error) {
	o.mu.Lock()
	sess, msg, err := o.locateLocked(id)
	if err == nil {
		err = checkTransition(msg, domain.StatusConfirmed)
	}
	if err != nil {
		o.mu.Unlock()
		return domain.ChatMessage{}, err
	}
	msg.ToolCall.Status = domain.StatusConfirmed
	out := msg.Clone()
	ev := messageEvent(hooks.EventToolCallConfirmed, sess, out)
	o.mu.Unlock()

	o.log.Info().Str("skill", out.ToolCall.SkillName).Str("messageId", id).Msg("tool call confirmed")
	o.emit(ev)
	return out, nil
}

// RejectToolCall declines a pending tool call and notes the rejection in the
// conversation so the model does not repeat the request blindly.
func (o *Orchestrator) RejectToolCall(id string) (domain.ChatMessage, error) {
	o.mu.Lock()
	sess, msg, err := o.locateLocked(id)
	if err == nil {
		err = checkTransition(msg, domain.StatusRejected)
	}
	if err != nil {
		o.mu.Unlock()
		return domain.ChatMessage{}, err
	}
	msg.ToolCall.Status = domain.StatusRejected
	out := msg.Clone()
	note := o.appendLocked(sess, domain.ChatMessage{
		Role:    domain.RoleTool,
		Name:    out.ToolCall.SkillName,
		Content: fmt.Sprintf("The user rejected the request to run %s. Do not request it again unless the user asks.", out.ToolCall.SkillName),
	})
	events := []event{
		messageEvent(hooks.EventToolCallRejected, sess, out),
		messageEvent(hooks.EventMessageAppended, sess, note),
	}
	o.mu.Unlock()

	o.log.Info().Str("skill", out.ToolCall.SkillName).Str("messageId", id).Msg("tool call rejected")
	o.emit(events...)
	return out, nil
}

// UpdateToolCallResult attaches result to a confirmed tool call, moving it to
// executed, and appends a tool message carrying the outcome. It succeeds at
// most once per tool call.
func (o *Orchestrator) UpdateToolCallResult(id string, result domain.SkillResult) (domain.ChatMessage, error) {
	o.mu.Lock()
	if o.inFlight[id] {
		o.mu.Unlock()
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrInFlight, id)
	}
	out, events, err := o.applyResultLocked(id, result)
	o.mu.Unlock()
	if err != nil {
		return domain.ChatMessage{}, err
	}
	o.emit(events...)
	return out, nil
}

// Execute runs a confirmed tool call through the executor and records the
// result. Executor errors and panics become a failed SkillResult. If the
// message disappeared while the executor ran, the result is dropped and
// ErrMessageNotFound is returned.
func (o *Orchestrator) Execute(ctx context.Context, id string, ectx domain.ExecuteContext) (domain.ChatMessage, error) {
	o.mu.Lock()
	_, msg, err := o.locateLocked(id)
	if err == nil {
		err = checkTransition(msg, domain.StatusExecuted)
	}
	if err == nil && o.inFlight[id] {
		err = fmt.Errorf("%w: %s", ErrInFlight, id)
	}
	if err != nil {
		o.mu.Unlock()
		return domain.ChatMessage{}, err
	}
	o.inFlight[id] = true
	call := msg.ToolCall.Clone()
	o.mu.Unlock()

	start := o.now()
	result := o.run(ctx, call.SkillName, call.Parameters, ectx)

	o.mu.Lock()
	delete(o.inFlight, id)
	out, events, err := o.applyResultLocked(id, result)
	o.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			o.log.Warn().
				Str("skill", call.SkillName).
				Str("messageId", id).
				Msg("dropping result for a message that no longer exists")
		}
		return domain.ChatMessage{}, err
	}

	o.log.Info().
		Str("skill", call.SkillName).
		Str("messageId", id).
		Bool("success", result.Success).
		Dur("duration", o.now().Sub(start)).
		Msg("tool call executed")
	o.emit(events...)
	return out, nil
}

// ConfirmAndExecute confirms a pending call and runs it.
func (o *Orchestrator) ConfirmAndExecute(ctx context.Context, id string, ectx domain.ExecuteContext) (domain.ChatMessage, error) {
	if _, err := o.ConfirmToolCall(id); err != nil {
		return domain.ChatMessage{}, err
	}
	return o.Execute(ctx, id, ectx)
}

// ClearSession empties the current session's messages, keeping its identity.
func (o *Orchestrator) ClearSession() (domain.ChatSession, error) {
	o.mu.Lock()
	sess := o.current
	if sess == nil {
		o.mu.Unlock()
		return domain.ChatSession{}, ErrNoSession
	}
	sess.Messages = []domain.ChatMessage{}
	out := sess.Clone()
	ev := sessionEvent(hooks.EventSessionCleared, sess)
	o.mu.Unlock()

	o.emit(ev)
	return out, nil
}

// NewSession creates a session, makes it current and puts it first in the list.
func (o *Orchestrator) NewSession() domain.ChatSession {
	o.mu.Lock()
	sess := o.newSessionLocked()
	out := sess.Clone()
	ev := sessionEvent(hooks.EventSessionStart, sess)
	o.mu.Unlock()

	o.emit(ev)
	return out
}

// Current returns a snapshot of the current session.
func (o *Orchestrator) Current() (domain.ChatSession, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return domain.ChatSession{}, false
	}
	return o.current.Clone(), true
}

// Sessions returns snapshots of every session, newest first.
func (o *Orchestrator) Sessions() []domain.ChatSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.ChatSession, len(o.sessions))
	for i, s := range o.sessions {
		out[i] = s.Clone()
	}
	return out
}

// Select makes the session with id current.
func (o *Orchestrator) Select(id string) (domain.ChatSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.sessions {
		if s.ID == id {
			o.current = s
			return s.Clone(), nil
		}
	}
	return domain.ChatSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// SetTitle renames the current session.
func (o *Orchestrator) SetTitle(title string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return ErrNoSession
	}
	o.current.Title = title
	return nil
}

// Message returns a snapshot of the message with id from any session.
func (o *Orchestrator) Message(id string) (domain.ChatMessage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, msg, err := o.locateLocked(id)
	if err != nil {
		return domain.ChatMessage{}, false
	}
	return msg.Clone(), true
}

// SessionOf returns the id of the session holding the message with id.
func (o *Orchestrator) SessionOf(id string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, _, err := o.locateLocked(id)
	if err != nil {
		return "", false
	}
	return sess.ID, true
}

// PendingToolCalls returns the messages of the current session awaiting confirmation.
func (o *Orchestrator) PendingToolCalls() []domain.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return nil
	}
	var out []domain.ChatMessage
	for _, m := range o.current.Messages {
		if m.ToolCall != nil && m.ToolCall.Status == domain.StatusPending {
			out = append(out, m.Clone())
		}
	}
	return out
}

func (o *Orchestrator) newSessionLocked() *domain.ChatSession {
	sess := &domain.ChatSession{
		ID:        o.newID(),
		Title:     DefaultTitle,
		CreatedAt: o.now(),
		Messages:  []domain.ChatMessage{},
	}
	o.sessions = append([]*domain.ChatSession{sess}, o.sessions...)
	o.current = sess
	o.log.Debug().Str("sessionId", sess.ID).Msg("session created")
	return sess
}

// appendLocked stamps msg with an id and timestamp, appends it and returns a copy.
func (o *Orchestrator) appendLocked(sess *domain.ChatSession, msg domain.ChatMessage) domain.ChatMessage {
	msg.ID = o.newID()
	msg.Timestamp = o.now()
	sess.Messages = append(sess.Messages, msg)
	return msg.Clone()
}

// locateLocked finds a message by id in any session. The returned pointer is
// only valid until the session's message slice is next appended to.
func (o *Orchestrator) locateLocked(id string) (*domain.ChatSession, *domain.ChatMessage, error) {
	for _, s := range o.sessions {
		if i := s.FindMessage(id); i >= 0 {
			return s, &s.Messages[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
}

func (o *Orchestrator) applyResultLocked(id string, result domain.SkillResult) (domain.ChatMessage, []event, error) {
	sess, msg, err := o.locateLocked(id)
	if err == nil {
		err = checkTransition(msg, domain.StatusExecuted)
	}
	if err != nil {
		return domain.ChatMessage{}, nil, err
	}

	r := result.Clone()
	msg.ToolCall.Result = &r
	msg.ToolCall.Status = domain.StatusExecuted
	out := msg.Clone()

	report := o.appendLocked(sess, domain.ChatMessage{
		Role:    domain.RoleTool,
		Name:    out.ToolCall.SkillName,
		Content: renderResult(result),
	})
	return out, []event{
		messageEvent(hooks.EventToolCallExecuted, sess, out),
		messageEvent(hooks.EventMessageAppended, sess, report),
	}, nil
}

// run invokes the executor, converting every failure into a failed result.
func (o *Orchestrator) run(ctx context.Context, name string, params map[string]any, ectx domain.ExecuteContext) (result domain.SkillResult) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Str("skill", name).Interface("panic", r).Msg("skill executor panicked")
			result = domain.FailedResult(fmt.Sprintf("skill %s failed unexpectedly", name))
		}
	}()

	def, ok := o.catalog.Get(name)
	if !ok {
		return domain.FailedResult(fmt.Sprintf("unknown skill %s", name))
	}
	if err := def.CheckArguments(params); err != nil {
		return domain.FailedResult(err.Error())
	}
	if o.executor == nil {
		return domain.FailedResult("no skill executor is configured")
	}

	res, err := o.executor.Execute(ctx, name, params, ectx)
	if err != nil {
		o.log.Warn().Err(err).Str("skill", name).Msg("skill executor failed")
		return domain.FailedResult(err.Error())
	}
	return res
}

func checkTransition(msg *domain.ChatMessage, to domain.ToolCallStatus) error {
	if msg.ToolCall == nil {
		return fmt.Errorf("%w: %s", ErrNoToolCall, msg.ID)
	}
	if from := msg.ToolCall.Status; !domain.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func renderResult(result domain.SkillResult) string {
	data, err := json.Marshal(result)
	if err != nil {
		if result.Success {
			return result.Message
		}
		return "error: " + result.Error
	}
	return string(data)
}

type event struct {
	name string
	data map[string]any
}

func sessionEvent(name string, sess *domain.ChatSession) event {
	return event{name: name, data: map[string]any{
		"sessionId": sess.ID,
		"title":     sess.Title,
	}}
}

func messageEvent(name string, sess *domain.ChatSession, msg domain.ChatMessage) event {
	data := map[string]any{
		"sessionId": sess.ID,
		"messageId": msg.ID,
		"role":      string(msg.Role),
		"message":   msg,
	}
	if msg.ToolCall != nil {
		data["skill"] = msg.ToolCall.SkillName
		data["status"] = string(msg.ToolCall.Status)
	}
	return event{name: name, data: data}
}

// emit dispatches events synchronously. It must be called without mu held so
// handlers may read orchestrator state.
func (o *Orchestrator) emit(events ...event) {
	if o.hooks == nil {
		return
	}
	for _, e := range events {
		o.hooks.Emit(context.Background(), e.name, e.data)
	}
}
