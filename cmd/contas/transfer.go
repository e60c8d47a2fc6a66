package main

import (
	"fmt"
	"io"
	"os"

	"contas/internal/services"

	"github.com/spf13/cobra"
)

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace every entry with the contents of a JSON file",
		Long: `Replace every entry with the contents of a JSON array. Use - to read
from standard input. Entries without a usable id get a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return a.withService(ctx, nil, func(svc *services.LedgerService) error {
				n, err := svc.Import(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", n)
				return nil
			})
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every entry as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), nil, func(svc *services.LedgerService) error {
				data, err := svc.Export()
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

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
