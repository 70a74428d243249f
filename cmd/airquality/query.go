package main

import (
	"fmt"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print stored records matching every given filter",
		Example: `  airquality query --country Italy
  airquality query --region Europe --city Rome`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec domain.FilterSpec
			for _, key := range domain.FilterKeys {
				v, _ := cmd.Flags().GetString(string(key))
				if err := spec.Set(key, v); err != nil {
					return err
				}
			}

			store, err := sqlstore.Open(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := query.NewService(store, a.logger, observability.NewMetricsWith(prometheus.NewRegistry()))
			records, err := svc.Lookup(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if len(records) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), query.Render(records))
			}
			return nil
		},
	}
	for _, key := range domain.FilterKeys {
		cmd.Flags().String(string(key), "", "match "+string(key)+" exactly")
	}
	return cmd
}
