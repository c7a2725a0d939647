package agent

import (
	"testing"

	"github.com/soyeahso/wawa/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(PromptConfig{
		Now: fixedNow,
		Context: domain.ExecuteContext{
			User:      domain.CurrentUser{Name: "김선생", IsAdmin: true},
			Module:    "makeup",
			YearMonth: "2026-03",
		},
		ExtraPrompt: "Be brief.",
	})

	assert.Contains(t, prompt, "Current date: 2026-03-09")
	assert.Contains(t, prompt, "Teacher: 김선생")
	assert.Contains(t, prompt, "administrator")
	assert.Contains(t, prompt, "Current screen: makeup")
	assert.Contains(t, prompt, "Selected month: 2026-03")
	assert.Contains(t, prompt, "approval")
	assert.Contains(t, prompt, "Be brief.")
}

func TestBuildSystemPrompt_Minimal(t *testing.T) {
	prompt := BuildSystemPrompt(PromptConfig{Now: fixedNow})

	assert.Contains(t, prompt, "Current date: 2026-03-09")
	assert.NotContains(t, prompt, "Teacher:")
	assert.NotContains(t, prompt, "Current screen:")
	assert.NotContains(t, prompt, "administrator")
}
