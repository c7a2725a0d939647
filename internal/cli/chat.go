package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/soyeahso/wawa/internal/agent"
	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/llm"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var module, month string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: "Chat with the assistant. Skills that change data ask for confirmation\n" +
			"(y/n) before they run. Type /new for a new session, /clear to empty the\n" +
			"current one, /quit to exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg, paths, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repl := &chatREPL{
				runner: a.runner,
				ectx:   a.executeContext(module, month),
				in:     bufio.NewScanner(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
			}
			return repl.run(ctx)
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "screen the teacher is on (report, timer, student, makeup, dm, grader)")
	cmd.Flags().StringVar(&month, "month", "", "selected month, YYYY-MM (default current month)")
	return cmd
}

// chatREPL reads teacher input line by line and drives the runner.
type chatREPL struct {
	runner *agent.Runner
	ectx   domain.ExecuteContext
	in     *bufio.Scanner
	out    io.Writer
}

func (r *chatREPL) run(ctx context.Context) error {
	fmt.Fprintln(r.out, "wawa chat. /new, /clear, /quit")
	for {
		fmt.Fprint(r.out, "> ")
		line, ok := r.readLine()
		if !ok {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			sess := r.runner.Orchestrator().NewSession()
			fmt.Fprintf(r.out, "new session %s\n", sess.ID)
			continue
		case "/clear":
			if _, err := r.runner.Orchestrator().ClearSession(); err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
			continue
		}

		turn, err := r.runner.Send(ctx, line, r.ectx)
		for err == nil {
			printTurn(r.out, turn)
			if len(turn.Pending) == 0 {
				break
			}
			if !r.decideAll(ctx, turn.Pending) {
				return nil
			}
			turn, err = r.runner.Resume(ctx, r.ectx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.printError(err)
		}
	}
}

func (r *chatREPL) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

// decideAll asks about every pending call. It reports false when input ends.
func (r *chatREPL) decideAll(ctx context.Context, pending []domain.ChatMessage) bool {
	for _, msg := range pending {
		fmt.Fprintf(r.out, "run %s %s? [y/n] ", msg.ToolCall.SkillName, formatParams(msg.ToolCall.Parameters))
		answer, ok := r.readLine()
		if !ok {
			return false
		}
		approve := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
		decided, err := r.runner.Decide(ctx, msg.ID, approve, r.ectx)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}
		printCall(r.out, decided)
	}
	return true
}

// printTurn writes the assistant replies and settled calls of a turn.
func printTurn(w io.Writer, turn *agent.TurnResult) {
	for _, m := range turn.Messages {
		switch {
		case m.Role != domain.RoleAssistant:
		case m.ToolCall != nil:
			printCall(w, m)
		case m.Content != "":
			fmt.Fprintln(w, m.Content)
		}
	}
}

func printCall(w io.Writer, m domain.ChatMessage) {
	tc := m.ToolCall
	switch tc.Status {
	case domain.StatusExecuted:
		if tc.Result != nil && tc.Result.Success {
			msg := tc.Result.Message
			if msg == "" {
				msg = "done"
			}
			fmt.Fprintf(w, "  ✓ %s: %s\n", tc.SkillName, msg)
		} else if tc.Result != nil {
			fmt.Fprintf(w, "  ✗ %s: %s\n", tc.SkillName, tc.Result.Error)
		}
	case domain.StatusRejected:
		fmt.Fprintf(w, "  - %s rejected\n", tc.SkillName)
	}
}

func (r *chatREPL) printError(err error) {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		fmt.Fprintf(r.out, "error: %s\n", pe.UserMessage())
		return
	}
	fmt.Fprintf(r.out, "error: %v\n", err)
}

// formatParams renders parameters as sorted key=value pairs.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(params[k])
		if err != nil {
			v = []byte(fmt.Sprint(params[k]))
		}
		parts = append(parts, k+"="+string(v))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
