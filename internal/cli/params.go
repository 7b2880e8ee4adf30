package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

func newParamsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "List the supported parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := domain.Parameters.All()
			if opts.json() {
				return writeJSON(cmd.OutOrStdout(), params)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PARAMETER\tCATALOG\tLEVEL\tUNIT\tDATASET\tDECODER")
			for _, p := range params {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ShortName, p.CatalogKey, p.Level, p.Unit, p.DatasetKey, p.DecoderKey)
			}
			return tw.Flush()
		},
	}
}
