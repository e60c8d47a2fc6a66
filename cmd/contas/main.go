package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"contas/internal/backend"
	"contas/internal/cli"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/mirror"
	"contas/internal/services"

	"github.com/spf13/cobra"
)

// openFunc builds a ledger service. The picker chooses the mirror file; nil
// selects the configured one.
type openFunc func(ctx context.Context, picker mirror.Picker) (*services.LedgerService, error)

// app holds what the commands share. open is set by PersistentPreRunE unless
// already provided.
type app struct {
	open   openFunc
	logger *log.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "contas",
		Short: "Record and total shared household expenses",
		Long: `contas records dated expenses with a category, payer and payment method,
filters and totals them, and can keep a copy of the ledger in a JSON file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.open != nil {
				return nil
			}
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			a.logger = cli.SetupLogger(cfg, log.ComponentApp)
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			factory := backend.NewFactory(a.logger)
			a.open = func(ctx context.Context, picker mirror.Picker) (*services.LedgerService, error) {
				return factory.CreateService(ctx, bcfg, picker)
			}
			return nil
		},
	}

	root.AddCommand(addCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(removeCmd(a))
	root.AddCommand(totalCmd(a))
	root.AddCommand(summaryCmd(a))
	root.AddCommand(importCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(categoriesCmd(a))
	root.AddCommand(mirrorCmd(a))

	return root
}

// withService opens the ledger, runs fn and closes it again.
func (a *app) withService(ctx context.Context, picker mirror.Picker, fn func(*services.LedgerService) error) error {
	svc, err := a.open(ctx, picker)
	if err != nil {
		return err
	}
	defer svc.Close()

	if _, err := svc.Open(ctx); err != nil {
		return err
	}
	// The configured mirror file, if any, follows every save.
	if picker == nil && svc.Mirror() != nil {
		if _, err := svc.Mirror().Connect(ctx); err != nil {
			return err
		}
	}
	return fn(svc)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&app{}).ExecuteContext(ctx)
	cancel()

	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the actionable message for err followed by its detail.
func reportError(w io.Writer, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrFormat),
		errors.Is(err, core.ErrPersistence),
		errors.Is(err, core.ErrSync):
		fmt.Fprintln(w, core.UserMessage(err))
		fmt.Fprintln(w, "  "+err.Error())
	default:
		fmt.Fprintln(w, err)
	}
}
