package main

import (
	"fmt"
	"text/tabwriter"

	"contas/internal/core"
	"contas/internal/mirror"
	"contas/internal/services"

	"github.com/spf13/cobra"
)

func addCmd(a *app) *cobra.Command {
	var in services.EntryInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new entry",
		Long: `Record a new entry. Every field is required. Use --category Outros with
--other to file the entry under a new category, which is remembered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, nil, func(svc *services.LedgerService) error {
				res, err := svc.AddEntry(ctx, in)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Entry saved: %s\n", res.Entry.ID)
				if res.CategoryCreated {
					fmt.Fprintf(out, "New category: %s\n", res.Entry.Category)
				}
				if res.Mirror == mirror.SyncFailed {
					fmt.Fprintln(out, core.UserMessage(core.ErrSync))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Description, "description", "", "what was paid")
	cmd.Flags().StringVar(&in.Location, "location", "", "where it was paid")
	cmd.Flags().StringVar(&in.Category, "category", "", "category, or Outros to use --other")
	cmd.Flags().StringVar(&in.OtherCategory, "other", "", "free-text category when --category is Outros")
	cmd.Flags().StringVar(&in.Payer, "payer", "", "who paid")
	cmd.Flags().StringVar(&in.PaymentMethod, "method", "", "payment method")
	cmd.Flags().StringVar(&in.Amount, "amount", "", "amount, e.g. 12,34 or 12.34")

	return cmd
}

func listCmd(a *app) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), nil, func(svc *services.LedgerService) error {
				entries := svc.List(f)
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries found.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tLOCATION\tCATEGORY\tPAYER\tMETHOD\tAMOUNT")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, core.FormatDate(e.Date), e.Description, e.Location,
						e.Category, e.Payer, e.PaymentMethod, core.FormatBRL(e.Amount))
				}
				fmt.Fprintf(w, "\t\t\t\t\t\tTOTAL\t%s\n", core.FormatBRL(core.AggregateTotal(entries, core.Filter{})))
				return w.Flush()
			})
		},
	}
	ff.register(cmd)

	return cmd
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, nil, func(svc *services.LedgerService) error {
				if _, err := svc.RemoveEntry(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Entry removed: %s\n", args[0])
				return nil
			})
		},
	}
}

func totalCmd(a *app) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "total",
		Short: "Print the total of the matching entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), nil, func(svc *services.LedgerService) error {
				fmt.Fprintln(cmd.OutOrStdout(), core.FormatBRL(svc.Total(f)))
				return nil
			})
		},
	}
	ff.register(cmd)

	return cmd
}

func summaryCmd(a *app) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), nil, func(svc *services.LedgerService) error {
				s := svc.Summary(f)
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tENTRIES\tAMOUNT")
				for _, c := range s.ByCategory {
					fmt.Fprintf(w, "%s\t%d\t%s\n", c.Name, c.Count, core.FormatBRL(c.Amount))
				}
				fmt.Fprintf(w, "TOTAL\t%d\t%s\n", s.Count, core.FormatBRL(s.Total))
				return w.Flush()
			})
		},
	}
	ff.register(cmd)

	return cmd
}
