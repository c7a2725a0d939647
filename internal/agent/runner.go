// Package agent drives a conversation turn: it asks the model for the next
// step, records requested tool calls with the orchestrator, executes the ones
// that need no approval, and feeds results back until the model answers in
// text or waits for the teacher.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/wawa/internal/chat"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/hooks"
	"github.com/soyeahso/wawa/internal/llm"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/soyeahso/wawa/internal/skill"
	"github.com/soyeahso/wawa/internal/store"
)

// defaultMaxToolRounds limits how many model round trips a turn may take.
const defaultMaxToolRounds = 4

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	// Provider names the backend in usage records.
	Provider      string
	Model         string
	MaxToolRounds int
	// MaxParallel bounds concurrent tool executions within a round; <= 0 means unbounded.
	MaxParallel int
	MaxTokens   int
	Temperature *float64
	ExtraPrompt string
}

// UsageRecorder persists token accounting. *store.UsageStore satisfies it.
type UsageRecorder interface {
	Add(ctx context.Context, rec store.UsageRecord) (store.UsageRecord, error)
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	SessionID string `json:"sessionId"`
	// Messages are the messages appended during the turn, in order.
	Messages []domain.ChatMessage `json:"messages"`
	// Pending are tool calls waiting for the teacher's decision.
	Pending  []domain.ChatMessage `json:"pending,omitempty"`
	Reply    string               `json:"reply,omitempty"`
	Model    string               `json:"model,omitempty"`
	Usage    llm.Usage            `json:"usage"`
	CostUSD  float64              `json:"costUsd,omitempty"`
	Rounds   int                  `json:"rounds"`
	Duration time.Duration        `json:"duration"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithUsage records every model call in u.
func WithUsage(u UsageRecorder) Option {
	return func(r *Runner) { r.usage = u }
}

// WithHooks emits turn failures on h.
func WithHooks(h *hooks.Manager) Option {
	return func(r *Runner) { r.hooks = h }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner is the agent loop over one orchestrator.
type Runner struct {
	cfg     RunnerConfig
	orch    *chat.Orchestrator
	chatter llm.Chatter
	usage   UsageRecorder
	hooks   *hooks.Manager
	now     func() time.Time
	log     *logging.Logger
}

// NewRunner creates an agent runner.
func NewRunner(cfg RunnerConfig, orch *chat.Orchestrator, chatter llm.Chatter, log *logging.Logger, opts ...Option) *Runner {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	if log == nil {
		log = logging.Nop()
	}
	r := &Runner{
		cfg:     cfg,
		orch:    orch,
		chatter: chatter,
		now:     time.Now,
		log:     log.Sub("agent"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Orchestrator returns the orchestrator the runner drives.
func (r *Runner) Orchestrator() *chat.Orchestrator { return r.orch }

// Send appends the teacher's text to the current session and runs the turn.
// A provider failure is returned as is, leaving the user message in place.
func (r *Runner) Send(ctx context.Context, text string, ectx domain.ExecuteContext) (*TurnResult, error) {
	user := r.orch.SendMessage(text)
	r.log.Info().Str("sessionId", r.sessionID()).Str("module", ectx.Module).Msg("processing message")

	res := &TurnResult{Messages: []domain.ChatMessage{user}}
	err := r.loop(ctx, ectx, res)
	return res, err
}

// Resume continues a turn after the teacher decided on pending tool calls.
// While calls are still pending it returns them without calling the model.
func (r *Runner) Resume(ctx context.Context, ectx domain.ExecuteContext) (*TurnResult, error) {
	res := &TurnResult{}
	if pending := r.orch.PendingToolCalls(); len(pending) > 0 {
		res.SessionID = r.sessionID()
		res.Pending = pending
		return res, nil
	}
	err := r.loop(ctx, ectx, res)
	return res, err
}

// Decide confirms or rejects a pending call. A confirmed call is executed
// before returning. The session holding the call becomes current, so a
// following Resume continues that session.
func (r *Runner) Decide(ctx context.Context, id string, approve bool, ectx domain.ExecuteContext) (domain.ChatMessage, error) {
	sessionID, ok := r.orch.SessionOf(id)
	if !ok {
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", chat.ErrMessageNotFound, id)
	}
	if sessionID != r.sessionID() {
		if _, err := r.orch.Select(sessionID); err != nil {
			return domain.ChatMessage{}, err
		}
		r.log.Info().Str("sessionId", sessionID).Str("messageId", id).Msg("switched to session of decided call")
	}
	if !approve {
		return r.orch.RejectToolCall(id)
	}
	return r.orch.ConfirmAndExecute(ctx, id, ectx)
}

func (r *Runner) loop(ctx context.Context, ectx domain.ExecuteContext, res *TurnResult) error {
	start := r.now()
	defer func() {
		res.SessionID = r.sessionID()
		res.Duration = r.now().Sub(start)
	}()

	tools := skill.ToolSchemasForModule(r.orch.Catalog(), ectx.Module)
	system := BuildSystemPrompt(PromptConfig{
		Now:         r.now(),
		Context:     ectx,
		ExtraPrompt: r.cfg.ExtraPrompt,
	})

	for round := 1; round <= r.cfg.MaxToolRounds; round++ {
		res.Rounds = round
		req := llm.ChatRequest{
			Model:       r.cfg.Model,
			Messages:    append([]llm.Message{{Role: llm.RoleSystem, Content: system}}, r.orch.History()...),
			Tools:       tools,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
		}

		resp, err := r.chatter.Chat(ctx, req)
		if err != nil {
			r.fail(ctx, round, err)
			return err
		}
		r.account(ctx, resp, res)

		if resp.Content != "" {
			msg, err := r.orch.AddAssistantMessage(resp.Content, nil)
			if err != nil {
				return err
			}
			res.Messages = append(res.Messages, msg)
			res.Reply = resp.Content
		}

		var confirmed []string
		noted := false
		for _, inv := range resp.ToolCalls {
			msg, err := r.orch.AddAssistantMessage("", &chat.ToolRequest{
				SkillName:  inv.Name,
				Parameters: inv.Arguments,
			})
			if errors.Is(err, chat.ErrUnknownSkill) {
				r.log.Warn().Str("skill", inv.Name).Msg("model requested an unknown skill")
				note := r.orch.AddToolNote(inv.Name, fmt.Sprintf(
					"Skill %s does not exist. Use only the tools provided.", inv.Name))
				res.Messages = append(res.Messages, note)
				noted = true
				continue
			}
			if err != nil {
				r.log.Warn().Str("skill", inv.Name).Err(err).Msg("ignoring tool call")
				continue
			}
			res.Messages = append(res.Messages, msg)
			switch msg.ToolCall.Status {
			case domain.StatusPending:
				res.Pending = append(res.Pending, msg)
			case domain.StatusConfirmed:
				confirmed = append(confirmed, msg.ID)
			}
		}

		if len(confirmed) > 0 {
			res.Messages = append(res.Messages, r.executeAll(ctx, confirmed, ectx)...)
		}

		if len(res.Pending) > 0 {
			r.log.Info().Int("pending", len(res.Pending)).Msg("waiting for confirmation")
			return nil
		}
		// A note about an unknown skill gets the model another round.
		if len(confirmed) == 0 && !noted {
			return nil
		}
	}

	r.log.Warn().Int("rounds", r.cfg.MaxToolRounds).Msg("tool round limit reached")
	return nil
}

// executeAll runs confirmed calls concurrently and returns the updated
// messages in request order. Calls whose message vanished are left out.
func (r *Runner) executeAll(ctx context.Context, ids []string, ectx domain.ExecuteContext) []domain.ChatMessage {
	results := make([]*domain.ChatMessage, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	if r.cfg.MaxParallel > 0 {
		g.SetLimit(r.cfg.MaxParallel)
	}
	for i, id := range ids {
		g.Go(func() error {
			msg, err := r.orch.Execute(gCtx, id, ectx)
			if err != nil {
				r.log.Warn().Str("messageId", id).Err(err).Msg("tool call not executed")
				return nil
			}
			results[i] = &msg
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.ChatMessage, 0, len(ids))
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func (r *Runner) account(ctx context.Context, resp *llm.ChatResponse, res *TurnResult) {
	model := resp.Model
	if model == "" {
		model = r.cfg.Model
	}
	res.Model = model
	if resp.Usage == nil {
		return
	}

	cost := llm.EstimateCost(model, *resp.Usage)
	res.Usage.InputTokens += resp.Usage.InputTokens
	res.Usage.OutputTokens += resp.Usage.OutputTokens
	res.CostUSD += cost

	r.log.Debug().
		Str("model", model).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Dur("duration", resp.Duration).
		Msg("model call complete")

	if r.usage == nil {
		return
	}
	_, err := r.usage.Add(ctx, store.UsageRecord{
		Provider:      r.cfg.Provider,
		Model:         model,
		InputTokens:   resp.Usage.InputTokens,
		OutputTokens:  resp.Usage.OutputTokens,
		EstimatedCost: cost,
		CreatedAt:     r.now(),
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to record usage")
	}
}

func (r *Runner) fail(ctx context.Context, round int, err error) {
	r.log.Error().Int("round", round).Str("category", string(llm.CategoryOf(err))).Err(err).Msg("model call failed")
	if r.hooks == nil {
		return
	}
	data := map[string]any{
		"sessionId": r.sessionID(),
		"category":  string(llm.CategoryOf(err)),
		"error":     err.Error(),
	}
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		data["userMessage"] = pe.UserMessage()
	}
	r.hooks.Emit(ctx, hooks.EventTurnFailed, data)
}

func (r *Runner) sessionID() string {
	if s, ok := r.orch.Current(); ok {
		return s.ID
	}
	return ""
}
