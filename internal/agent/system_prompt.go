package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/wawa/internal/domain"
)

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	Now         time.Time
	Context     domain.ExecuteContext
	ExtraPrompt string
}

// BuildSystemPrompt constructs the system prompt for the model.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	b.WriteString("You are the assistant inside an academy management app used by teachers. ")
	b.WriteString("Answer in the language the teacher writes in.\n\n")

	// Date context
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	fmt.Fprintf(&b, "Current date: %s\n", now.Format("2006-01-02"))

	ctx := cfg.Context
	if ctx.User.Name != "" {
		fmt.Fprintf(&b, "Teacher: %s\n", ctx.User.Name)
	}
	if ctx.User.IsAdmin {
		b.WriteString("The teacher is an administrator.\n")
	}
	if ctx.Module != "" {
		fmt.Fprintf(&b, "Current screen: %s\n", ctx.Module)
	}
	if ctx.YearMonth != "" {
		fmt.Fprintf(&b, "Selected month: %s\n", ctx.YearMonth)
	}

	b.WriteString("\n")

	// Guidelines
	b.WriteString("Guidelines:\n")
	b.WriteString("- Use the provided functions to read or change data; never invent records.\n")
	b.WriteString("- Functions that change data are shown to the teacher for approval before they run. ")
	b.WriteString("Say what you are about to do and wait for the result.\n")
	b.WriteString("- If the teacher rejects a request, do not repeat it unless asked.\n")
	b.WriteString("- Dates are YYYY-MM-DD and months are YYYY-MM.\n")
	b.WriteString("- If a required detail such as a student name is missing, ask for it instead of guessing.\n")

	// Extra/custom prompt
	if cfg.ExtraPrompt != "" {
		b.WriteString("\n")
		b.WriteString(cfg.ExtraPrompt)
		b.WriteString("\n")
	}

	return b.String()
}
