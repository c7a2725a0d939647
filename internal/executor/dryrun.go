package executor

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/soyeahso/wawa/internal/skill"
)

// Invocation is one call seen by a DryRunExecutor.
type Invocation struct {
	Skill      string
	Parameters map[string]any
	Context    domain.ExecuteContext
}

// DryRunExecutor performs nothing. It records every invocation and reports
// success; navigate skills answer with a navigate UI action.
type DryRunExecutor struct {
	catalog *skill.Catalog
	log     *logging.Logger

	mu    sync.Mutex
	calls []Invocation
}

// NewDryRun creates a dry-run executor resolving effects through catalog.
func NewDryRun(catalog *skill.Catalog, log *logging.Logger) *DryRunExecutor {
	if log == nil {
		log = logging.Nop()
	}
	return &DryRunExecutor{catalog: catalog, log: log.Sub("executor.dryrun")}
}

// Execute records the invocation and returns a successful result.
func (d *DryRunExecutor) Execute(ctx context.Context, skillName string, params map[string]any, ectx domain.ExecuteContext) (domain.SkillResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SkillResult{}, err
	}

	d.mu.Lock()
	d.calls = append(d.calls, Invocation{Skill: skillName, Parameters: maps.Clone(params), Context: ectx})
	d.mu.Unlock()

	d.log.Info().Str("skill", skillName).Interface("parameters", params).Msg("dry run")

	def, ok := d.catalog.Get(skillName)
	if !ok {
		return domain.FailedResult(fmt.Sprintf("unknown skill %s", skillName)), nil
	}

	result := domain.SkillResult{
		Success: true,
		Message: fmt.Sprintf("[dry run] %s", skillName),
	}
	if len(params) > 0 {
		result.Data = maps.Clone(params)
	}
	if def.Effect == skill.EffectNavigate {
		payload := maps.Clone(params)
		if payload == nil {
			payload = map[string]any{}
		}
		if _, ok := payload["module"]; !ok {
			payload["module"] = def.Module
		}
		result.UIAction = &domain.UIAction{Type: domain.UIActionNavigate, Payload: payload}
	}
	return result, nil
}

// Calls returns a copy of the recorded invocations in order.
func (d *DryRunExecutor) Calls() []Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Invocation(nil), d.calls...)
}

// Reset forgets the recorded invocations.
func (d *DryRunExecutor) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}
