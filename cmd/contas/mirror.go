package main

import (
	"fmt"

	"contas/internal/mirror"
	"contas/internal/services"

	"github.com/spf13/cobra"
)

func mirrorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Keep a copy of the ledger in a JSON file",
	}

	cmd.AddCommand(mirrorWriteCmd(a))

	return cmd
}

func mirrorWriteCmd(a *app) *cobra.Command {
	var (
		file   string
		prompt bool
	)

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Connect a mirror file and write the current entries to it",
		Long: `Connect a mirror file and write the current entries to it. Without
--file or --prompt the MIRROR_FILE setting is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var picker mirror.Picker
			switch {
			case prompt:
				picker = mirror.PromptPicker{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
			case file != "":
				picker = mirror.StaticPicker{Path: file}
			}

			ctx := cmd.Context()
			return a.withService(ctx, picker, func(svc *services.LedgerService) error {
				res, err := svc.ConnectMirror(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch res {
				case mirror.Connected:
					fmt.Fprintf(out, "Mirror written: %s\n", svc.Mirror().HandleName())
				case mirror.Unsupported:
					fmt.Fprintln(out, "No mirror file configured. Use --file, --prompt or MIRROR_FILE.")
				default:
					fmt.Fprintln(out, "Mirror not connected.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "mirror file path")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "ask for the mirror file path")
	cmd.MarkFlagsMutuallyExclusive("file", "prompt")

	return cmd
}
