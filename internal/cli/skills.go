package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/wawa/internal/skill"
	"github.com/spf13/cobra"
)

func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect the skill catalog",
	}

	cmd.AddCommand(newSkillsListCmd())
	cmd.AddCommand(newSkillsSchemaCmd())
	return cmd
}

func newSkillsListCmd() *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered skills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := buildCatalog(cfg.Skills, paths, log)
			if err != nil {
				return err
			}

			defs := catalog.ListAll()
			if module != "" {
				defs = catalog.ListByModule(module)
			}
			out := cmd.OutOrStdout()
			for _, def := range defs {
				confirm := ""
				if def.RequiresConfirmation {
					confirm = " (confirm)"
				}
				fmt.Fprintf(out, "%-28s %-8s %s%s\n", def.Name, def.Effect, def.Description, confirm)
				if req := def.RequiredParams(); len(req) > 0 {
					fmt.Fprintf(out, "%-28s required: %s\n", "", strings.Join(req, ", "))
				}
			}
			fmt.Fprintf(out, "\n%d skill(s), modules: %s\n", len(defs), strings.Join(catalog.ListModules(), ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "only skills offered on this screen (includes system skills)")
	return cmd
}

func newSkillsSchemaCmd() *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the tool schemas sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := buildCatalog(cfg.Skills, paths, log)
			if err != nil {
				return err
			}
			if module == "" {
				module = cfg.Skills.DefaultModule
			}

			var schemas any = skill.ToToolSchemas(catalog.ListAll())
			if module != "" {
				schemas = skill.ToolSchemasForModule(catalog, module)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schemas)
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "screen to build schemas for (default skills.defaultModule)")
	return cmd
}
