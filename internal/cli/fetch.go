package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

func newFetchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download one validated GRIB2 record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, fh, err := readRunFlags(cmd)
			if err != nil {
				return err
			}
			parameter, _ := cmd.Flags().GetString("parameter")
			level, _ := cmd.Flags().GetString("level")
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				return errors.New("--output is required (use - for stdout)")
			}

			f, err := opts.fetcher(cmd)
			if err != nil {
				return err
			}
			rec, err := f.Retrieve(cmd.Context(), domain.RetrievalRequest{
				Run:          run,
				ForecastHour: fh,
				Parameter:    parameter,
				Level:        level,
			})
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(rec.Data)
				return err
			}
			if err := os.WriteFile(out, rec.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			if opts.json() {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes %s -> %s\n", rec.Key(), len(rec.Data), rec.Range.Header(), out)
			return nil
		},
	}
	runFlags(cmd)
	cmd.Flags().StringP("parameter", "p", "", "Parameter short name, see gfsidx params (required)")
	cmd.Flags().StringP("level", "l", "", "Catalog level (default: the parameter's level)")
	cmd.Flags().StringP("output", "o", "", "Output file, or - for stdout (required)")
	cmd.MarkFlagRequired("parameter") //nolint:errcheck // flag is registered above
	return cmd
}
