package cli

import (
	"fmt"
	"time"

	"github.com/soyeahso/wawa/internal/agent"
	"github.com/soyeahso/wawa/internal/chat"
	"github.com/soyeahso/wawa/internal/config"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/executor"
	"github.com/soyeahso/wawa/internal/hooks"
	"github.com/soyeahso/wawa/internal/llm"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/soyeahso/wawa/internal/skill"
	"github.com/soyeahso/wawa/internal/store"
)

// app is the wired object graph shared by chat, message and gateway.
type app struct {
	cfg     config.Config
	hooks   *hooks.Manager
	catalog *skill.Catalog
	orch    *chat.Orchestrator
	runner  *agent.Runner
	db      *store.DB
	usage   *store.UsageStore
	audit   *store.AuditStore
	// exec is the executor in use; *executor.DryRunExecutor in dry-run mode.
	exec chat.Executor
}

// appOptions let tests substitute the model and the database location.
type appOptions struct {
	chatter llm.Chatter
	dbPath  string
}

// buildApp wires every component named in cfg.
func buildApp(cfg config.Config, p config.Paths, log *logging.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, hooks: hooks.NewManager(log)}

	catalog, err := buildCatalog(cfg.Skills, p, log)
	if err != nil {
		return nil, err
	}
	a.catalog = catalog

	switch cfg.Executor.Mode {
	case "http":
		a.exec = executor.NewHTTP(executor.HTTPConfig{
			BaseURL: cfg.Executor.BaseURL,
			Token:   cfg.Executor.Token,
			Timeout: cfg.Executor.Timeout(),
		}, log)
	default:
		a.exec = executor.NewDryRun(catalog, log)
	}

	if !cfg.Store.Disabled {
		path := opts.dbPath
		if path == "" {
			path = cfg.Store.Path
		}
		if path == "" {
			path = p.DB
		}
		db, err := store.Open(path, log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = db
		a.usage = store.NewUsageStore(db)
		a.audit = store.NewAuditStore(db)
		store.AttachAudit(a.hooks, a.audit)
	}

	chatter := opts.chatter
	if chatter == nil {
		chatter, err = buildChatter(cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.orch = chat.New(catalog, a.exec, chat.WithHooks(a.hooks), chat.WithLogger(log))

	runnerOpts := []agent.Option{agent.WithHooks(a.hooks)}
	if a.usage != nil {
		runnerOpts = append(runnerOpts, agent.WithUsage(a.usage))
	}
	a.runner = agent.NewRunner(agent.RunnerConfig{
		Provider:      cfg.Provider.Type,
		Model:         cfg.Provider.Model,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		MaxTokens:     cfg.Provider.MaxTokens,
		Temperature:   cfg.Provider.Temperature,
	}, a.orch, chatter, log, runnerOpts...)

	return a, nil
}

// Close releases the database.
func (a *app) Close() {
	if a.db != nil {
		store.DetachAudit(a.hooks)
		a.db.Close()
	}
}

// executeContext builds the context skills run under.
func (a *app) executeContext(module, month string) domain.ExecuteContext {
	if module == "" {
		module = a.cfg.Skills.DefaultModule
	}
	if month == "" {
		month = time.Now().Format(store.MonthLayout)
	}
	return domain.ExecuteContext{
		User: domain.CurrentUser{
			TeacherID: a.cfg.User.TeacherID,
			Name:      a.cfg.User.Name,
			IsAdmin:   a.cfg.User.IsAdmin,
			LoginAt:   time.Now(),
		},
		Module:    module,
		YearMonth: month,
	}
}

// buildCatalog registers the built-in skills (unless disabled) followed by
// the configured skill files and every file in the skills directory.
func buildCatalog(cfg config.SkillsConfig, p config.Paths, log *logging.Logger) (*skill.Catalog, error) {
	catalog := skill.NewCatalog(log)
	if cfg.BuiltinEnabled() {
		if err := catalog.RegisterAll(skill.Builtin()); err != nil {
			return nil, fmt.Errorf("registering built-in skills: %w", err)
		}
	}

	files := append([]string(nil), cfg.Files...)
	if p.Skills != "" {
		found, err := p.SkillFiles()
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if err := skill.LoadFiles(catalog, files); err != nil {
		return nil, err
	}
	return catalog, nil
}

// buildChatter assembles the provider chain: each provider retries on its
// own, then the chain fails over to the configured fallbacks in order.
func buildChatter(cfg config.Config, log *logging.Logger) (llm.Chatter, error) {
	cache := llm.NewCache(log)
	policy := agent.RetryPolicy{
		MaxAttempts:    cfg.Agent.Retry.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Agent.Retry.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Agent.Retry.MaxBackoffMs) * time.Millisecond,
	}

	primary, err := providerConfig(cfg.Provider)
	if err != nil {
		return nil, err
	}
	chain := agent.WithRetry(cache.Get(primary), policy, log)
	if len(cfg.Provider.Fallbacks) == 0 {
		return chain, nil
	}

	fallbacks := make([]llm.Chatter, 0, len(cfg.Provider.Fallbacks))
	for _, fb := range cfg.Provider.Fallbacks {
		pc, err := providerConfig(fb)
		if err != nil {
			return nil, err
		}
		fallbacks = append(fallbacks, agent.WithRetry(cache.Get(pc), policy, log))
	}
	return agent.NewFailoverChatter(log, chain, fallbacks...), nil
}

func providerConfig(pc config.ProviderConfig) (llm.Config, error) {
	kind, err := llm.ParseKind(pc.Type)
	if err != nil {
		return llm.Config{}, err
	}
	return llm.Config{
		Kind:            kind,
		Model:           pc.Model,
		APIKey:          pc.APIKey,
		BaseURL:         pc.BaseURL,
		Timeout:         pc.Timeout(),
		MaxTokens:       pc.MaxTokens,
		DisableThinking: pc.DisableThinking,
		Temperature:     pc.Temperature,
	}, nil
}
