package main

import (
	"contas/internal/core"

	"github.com/spf13/cobra"
)

// filterFlags binds the filter controls to command flags.
type filterFlags struct {
	in core.FilterInput
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.DateFrom, "from", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.in.DateTo, "to", "", "only entries on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.in.AmountMin, "min", "", "minimum amount, e.g. 10,50")
	cmd.Flags().StringVar(&f.in.AmountMax, "max", "", "maximum amount")
	cmd.Flags().StringVar(&f.in.Payer, "payer", "", "only entries paid by this person")
	cmd.Flags().StringVar(&f.in.PaymentMethod, "method", "", "only entries with this payment method")
}

func (f *filterFlags) filter() (core.Filter, error) {
	return core.ParseFilter(f.in)
}
