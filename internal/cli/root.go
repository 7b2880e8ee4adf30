// Package cli implements the gfsidx commands for inspecting GFS catalogs and
// pulling single records from the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/openwx-service/internal/adapter/noaa"
	"github.com/couchcryptid/openwx-service/internal/domain"
	"github.com/couchcryptid/openwx-service/internal/fetch"
	"github.com/couchcryptid/openwx-service/internal/observability"
)

const defaultBaseURL = "https://noaa-gfs-bdp-pds.s3.amazonaws.com"

// options holds the persistent flags shared by every subcommand.
type options struct {
	baseURL string
	product string
	timeout time.Duration
	format  string
	verbose bool
}

// NewRootCmd builds the gfsidx command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "gfsidx",
		Short:         "Inspect GFS catalogs and fetch single GRIB2 records",
		Long:          "gfsidx reads the .idx catalog published next to each GFS GRIB2 file and uses its byte offsets to download one record with an HTTP Range request.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.baseURL, "base-url", sharedcfg.EnvOrDefault("GFS_BASE_URL", defaultBaseURL), "GFS distribution host (default: $GFS_BASE_URL or the NOAA open-data bucket)")
	pf.StringVar(&opts.product, "product", sharedcfg.EnvOrDefault("GFS_PRODUCT", string(domain.ProductPGRB2)), "GRIB2 product: pgrb2 or pgrb2b")
	pf.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Timeout for each HTTP request")
	pf.StringVarP(&opts.format, "format", "f", "text", "Output format: json or text")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log upstream requests to stderr")

	cmd.AddCommand(
		newParamsCmd(opts),
		newURLsCmd(opts),
		newCatalogCmd(opts),
		newFetchCmd(opts),
	)
	return cmd
}

func (o *options) locator() (domain.Locator, error) {
	product, err := domain.ParseProduct(o.product)
	if err != nil {
		return domain.Locator{}, err
	}
	return domain.Locator{BaseURL: o.baseURL, Product: product}, nil
}

func (o *options) fetcher(cmd *cobra.Command, opts ...fetch.Option) (*fetch.Fetcher, error) {
	loc, err := o.locator()
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	client := noaa.NewClient(o.timeout, metrics, logger)
	return fetch.New(client, loc, logger, opts...), nil
}

func (o *options) json() bool {
	return o.format == "json"
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// runFlags registers the --run and --fh flags that name a GFS file.
func runFlags(cmd *cobra.Command) {
	cmd.Flags().String("run", "", "Model run, YYYYMMDDHH or RFC 3339 (required)")
	cmd.Flags().Int("fh", 0, "Forecast hour")
	cmd.MarkFlagRequired("run") //nolint:errcheck // flag is registered above
}

func readRunFlags(cmd *cobra.Command) (time.Time, int, error) {
	runStr, _ := cmd.Flags().GetString("run")
	fh, _ := cmd.Flags().GetInt("fh")
	run, err := domain.ParseTime(runStr)
	if err != nil {
		return time.Time{}, 0, err
	}
	return run, fh, nil
}
