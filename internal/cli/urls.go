package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newURLsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Print the file and catalog URLs of a forecast hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, fh, err := readRunFlags(cmd)
			if err != nil {
				return err
			}
			loc, err := opts.locator()
			if err != nil {
				return err
			}

			fileURL, catalogURL := loc.FileURL(run, fh), loc.CatalogURL(run, fh)
			if opts.json() {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"file_url":    fileURL,
					"catalog_url": catalogURL,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), fileURL)
			fmt.Fprintln(cmd.OutOrStdout(), catalogURL)
			return nil
		},
	}
	runFlags(cmd)
	return cmd
}
