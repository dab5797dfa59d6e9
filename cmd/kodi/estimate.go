package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/kodi/pkg/models"
)

func newEstimateCmd(a *app) *cobra.Command {
	var (
		year     int
		language string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate <damage-code> <size> <unit>",
		Short: "Estimate the repair cost of a damage",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[1], err)
			}

			svc, err := a.prepare(cmd)
			if err != nil {
				return err
			}

			estimate, err := svc.engine.Estimate(cmd.Context(), models.EstimateQuery{
				DamageCode: args[0],
				Language:   models.Language(language),
				Size:       size,
				Unit:       args[2],
				PriceYear:  year,
				Verbose:    verbose,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), estimate)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "price book year (latest when omitted)")
	cmd.Flags().StringVar(&language, "language", "", "nl or en (default from ESTIMATE_DEFAULT_LANGUAGE)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include the selected severity band")
	return cmd
}
