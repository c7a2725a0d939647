package chat

import (
	"context"

	"github.com/soyeahso/wawa/internal/domain"
)

// Executor performs the domain action behind a skill. A domain-level failure
// is reported as SkillResult.Success=false; a returned error means the
// executor itself could not run.
type Executor interface {
	Execute(ctx context.Context, skillName string, params map[string]any, ectx domain.ExecuteContext) (domain.SkillResult, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, skillName string, params map[string]any, ectx domain.ExecuteContext) (domain.SkillResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, skillName string, params map[string]any, ectx domain.ExecuteContext) (domain.SkillResult, error) {
	return f(ctx, skillName, params, ectx)
}

// ToolRequest is a model-requested invocation handed to AddAssistantMessage.
type ToolRequest struct {
	SkillName  string
	Parameters map[string]any
}
