package main

import (
	"fmt"
	"strings"

	"contas/internal/services"

	"github.com/spf13/cobra"
)

func categoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage expense categories",
	}

	cmd.AddCommand(categoriesListCmd(a))
	cmd.AddCommand(categoriesAddCmd(a))
	cmd.AddCommand(categoriesExportCmd(a))

	return cmd
}

func categoriesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), nil, func(svc *services.LedgerService) error {
				for _, name := range svc.Categories().List() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func categoriesAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category unless one with the same name exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Category name is blank, nothing added.")
				return nil
			}

			ctx := cmd.Context()
			return a.withService(ctx, nil, func(svc *services.LedgerService) error {
				added, err := svc.AddCategory(ctx, name)
				if err != nil {
					return err
				}
				if added {
					fmt.Fprintf(cmd.OutOrStdout(), "Category added: %s\n", name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Category already exists: %s\n", name)
				}
				return nil
			})
		},
	}
}

func categoriesExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the category list as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), nil, func(svc *services.LedgerService) error {
				data, err := svc.Categories().ExportSnapshot()
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), out, data)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of standard output")

	return cmd
}
