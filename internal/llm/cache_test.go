package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyedByKindAndModel(t *testing.T) {
	c := NewCache(silentLog())

	a := c.Get(Config{Kind: KindGemini, APIKey: "k1"})
	b := c.Get(Config{Kind: KindGemini, Model: "gemini-2.5-flash", APIKey: "k2"})
	assert.Same(t, a, b, "empty model resolves to the backend default")

	other := c.Get(Config{Kind: KindGemini, Model: "gemini-2.0-flash", APIKey: "k1"})
	assert.NotSame(t, a, other)

	local := c.Get(Config{Kind: KindLocal})
	assert.Equal(t, KindLocal, local.Kind())
	assert.Equal(t, 3, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.NotSame(t, a, c.Get(Config{Kind: KindGemini, APIKey: "k1"}))
}

func TestEstimateCost(t *testing.T) {
	cost := EstimateCost("gemini-2.5-flash", Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
	assert.InDelta(t, 0.75, cost, 1e-9)

	cost = EstimateCost("claude-haiku-4-5-20251001", Usage{InputTokens: 500_000})
	assert.InDelta(t, 0.40, cost, 1e-9)

	assert.Zero(t, EstimateCost("llama3.1", Usage{InputTokens: 1000, OutputTokens: 1000}))
	assert.Zero(t, EstimateCost("unknown", Usage{InputTokens: 1000}))
}

func TestModels(t *testing.T) {
	list := Models()
	assert.NotEmpty(t, list)
	list[0].ID = "mutated"

	_, ok := LookupModel("mutated")
	assert.False(t, ok)
	m, ok := LookupModel("claude-sonnet-4-5-20250929")
	assert.True(t, ok)
	assert.Equal(t, KindClaude, m.Kind)
}

func TestIsThinkingModel(t *testing.T) {
	assert.True(t, IsThinkingModel("gemini-2.5-flash"))
	assert.True(t, IsThinkingModel("gemini-2.5-pro"))
	assert.False(t, IsThinkingModel("gemini-2.0-flash"))
	assert.False(t, IsThinkingModel("claude-haiku-4-5-20251001"))
}
