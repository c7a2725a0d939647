package cli

import (
	"fmt"
	"time"

	"github.com/soyeahso/wawa/internal/store"
	"github.com/spf13/cobra"
)

func newUsageCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show model usage and estimated cost for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Disabled {
				return fmt.Errorf("usage tracking is disabled (store.disabled)")
			}
			if month == "" {
				month = time.Now().Format(store.MonthLayout)
			}
			if _, err := time.Parse(store.MonthLayout, month); err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", month)
			}

			path := cfg.Store.Path
			if path == "" {
				path = paths.DB
			}
			db, err := store.Open(path, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			us := store.NewUsageStore(db)
			records, err := us.Monthly(cmd.Context(), month)
			if err != nil {
				return err
			}
			totals, err := us.Totals(cmd.Context(), month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(out, "%s  %-8s %-28s in=%-7d out=%-7d $%.6f\n",
					r.CreatedAt.Local().Format(time.DateTime), r.Provider, r.Model,
					r.InputTokens, r.OutputTokens, r.EstimatedCost)
			}
			fmt.Fprintf(out, "%s: %d call(s), %d input + %d output tokens, $%.4f\n",
				totals.Month, totals.CallCount, totals.InputTokens, totals.OutputTokens, totals.EstimatedCost)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to report, YYYY-MM (default current month)")
	return cmd
}
