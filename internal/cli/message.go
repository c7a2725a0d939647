package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Send one-off messages",
	}

	cmd.AddCommand(newMessageSendCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		module string
		month  string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a message and print the reply",
		Long: "Send a single message. Skills that need approval are rejected unless\n" +
			"--yes is given, in which case they are approved and run.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg, paths, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ectx := a.executeContext(module, month)
			out := cmd.OutOrStdout()

			turn, err := a.runner.Send(ctx, text, ectx)
			for err == nil {
				printTurn(out, turn)
				if len(turn.Pending) == 0 {
					break
				}
				for _, msg := range turn.Pending {
					decided, derr := a.runner.Decide(ctx, msg.ID, yes, ectx)
					if derr != nil {
						return derr
					}
					printCall(out, decided)
				}
				turn, err = a.runner.Resume(ctx, ectx)
			}
			if err != nil {
				return err
			}
			if turn.Model != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[model=%s tokens=%d+%d cost=$%.6f]\n",
					turn.Model, turn.Usage.InputTokens, turn.Usage.OutputTokens, turn.CostUSD)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "screen the teacher is on")
	cmd.Flags().StringVar(&month, "month", "", "selected month, YYYY-MM (default current month)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "approve every requested skill")
	return cmd
}
