package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/kodi/pkg/normalizer"
	"github.com/Ramsey-B/kodi/pkg/processor"
)

// prepare opens the connections a one-shot catalog command needs.
func (a *app) prepare(cmd *cobra.Command) (*services, error) {
	if err := a.openDatabase(cmd.Context(), a.cfg.DatabaseMigrateOnStart); err != nil {
		return nil, err
	}
	if err := a.openRedis(); err != nil {
		return nil, err
	}
	a.openProducer()
	return a.buildServices()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newNormalizeCmd(a *app) *cobra.Command {
	var req processor.NormalizeRequest

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Merge raw cost rows into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			result, err := svc.catalog.Normalize(cmd.Context(), req)
			if result != nil {
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&req.Source, "source", normalizer.SourceStaging, "row source: staging or legacy")
	cmd.Flags().StringVar(&req.LoadID, "load-id", "", "identifier of the load being normalized")
	cmd.Flags().BoolVar(&req.ClearStaging, "clear-staging", false, "empty the staging table after a successful pass")
	return cmd
}

func newRecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recode",
		Short: "Rewrite catalog codes into canonical form",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			result, err := svc.catalog.Recode(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
