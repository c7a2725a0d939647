package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/soyeahso/wawa/internal/config"
	"github.com/soyeahso/wawa/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show wawa status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wawa %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Skills:   %s\n", paths.Skills)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:   not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			model := cfg.Provider.Model
			if model == "" {
				model = "(default)"
			}
			fmt.Fprintf(out, "Provider: %s model=%s\n", cfg.Provider.Type, model)
			for i, fb := range cfg.Provider.Fallbacks {
				fmt.Fprintf(out, "Fallback: %d %s model=%s\n", i+1, fb.Type, fb.Model)
			}

			fmt.Fprintf(out, "Executor: %s", cfg.Executor.Mode)
			if cfg.Executor.Mode == "http" {
				fmt.Fprintf(out, " %s", cfg.Executor.BaseURL)
			}
			fmt.Fprintln(out)

			if cfg.Store.Disabled {
				fmt.Fprintln(out, "Store:    disabled")
			} else {
				path := cfg.Store.Path
				if path == "" {
					path = paths.DB
				}
				fmt.Fprintf(out, "Store:    %s\n", path)
			}

			auth := "none"
			if cfg.Gateway.Auth.Token != "" {
				auth = "token"
			}
			fmt.Fprintf(out, "Gateway:  port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, auth, cfg.Gateway.TLS.Enabled)

			if catalog, err := buildCatalog(cfg.Skills, paths, log); err != nil {
				fmt.Fprintf(out, "Catalog:  error: %v\n", err)
			} else {
				fmt.Fprintf(out, "Catalog:  %d skill(s) in %s\n", catalog.Len(), strings.Join(catalog.ListModules(), ", "))
			}

			if cfg.User.Name != "" {
				fmt.Fprintf(out, "Teacher:  %s admin=%v\n", cfg.User.Name, cfg.User.IsAdmin)
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}

	return cmd
}
