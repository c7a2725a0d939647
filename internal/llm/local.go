package llm

import (
	"context"
	"strings"
	"sync"
)

// LocalGenerator produces a completion for a flat prompt on the device.
type LocalGenerator func(ctx context.Context, prompt string) (string, error)

// localBackend runs an on-device model. It is unavailable until a generator
// is loaded and never emits tool calls.
type localBackend struct {
	mu  sync.RWMutex
	gen LocalGenerator
}

func (l *localBackend) load(gen LocalGenerator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen = gen
}

func (l *localBackend) loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gen != nil
}

func (l *localBackend) chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	l.mu.RLock()
	gen := l.gen
	l.mu.RUnlock()
	if gen == nil {
		return nil, &ProviderError{
			Provider: string(KindLocal),
			Category: CategoryUnavailable,
			Message:  "local model is not loaded",
		}
	}

	text, err := gen(ctx, flattenPrompt(req.Messages))
	if err != nil {
		return nil, &ProviderError{
			Provider: string(KindLocal),
			Category: CategoryUnknown,
			Message:  err.Error(),
			Err:      err,
		}
	}
	return &ChatResponse{
		Content:    text,
		Usage:      &Usage{},
		StopReason: "stop",
	}, nil
}

func flattenPrompt(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role != RoleUser {
			b.WriteString(m.Role)
			b.WriteString(": ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}
