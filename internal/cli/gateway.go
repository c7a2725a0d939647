package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/soyeahso/wawa/internal/config"
	"github.com/soyeahso/wawa/internal/gateway"
	"github.com/spf13/cobra"
)

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Manage the wawa gateway server",
	}

	cmd.AddCommand(newGatewayRunCmd())
	return cmd
}

func newGatewayRunCmd() *cobra.Command {
	var (
		port   int
		bind   string
		module string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the gateway server",
		Long: "Serve the chat over WebSocket so the academy app can embed it. Binding\n" +
			"beyond loopback requires gateway.auth.token.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			// Served read-only by config.get.
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				raw = make(map[string]any)
			}

			a, err := buildApp(cfg, paths, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg.Gateway, a.runner, log,
				gateway.WithConfigRaw(raw),
				gateway.WithHooks(a.hooks),
				gateway.WithDefaultContext(a.executeContext(module, "")),
			)

			log.Info().
				Int("skills", a.catalog.Len()).
				Str("provider", cfg.Provider.Type).
				Str("executor", cfg.Executor.Mode).
				Msg("gateway starting")
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")
	cmd.Flags().StringVar(&module, "module", "", "screen assumed when a request names none")

	return cmd
}
