package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

type catalogRow struct {
	Position    int              `json:"position"`
	Parameter   string           `json:"parameter"`
	Level       string           `json:"level"`
	Description string           `json:"description"`
	Range       domain.ByteRange `json:"range"`
	Shadowed    bool             `json:"shadowed,omitempty"`
}

func newCatalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fetch and parse a catalog, printing each record's byte range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, fh, err := readRunFlags(cmd)
			if err != nil {
				return err
			}
			parameter, _ := cmd.Flags().GetString("parameter")
			strict, _ := cmd.Flags().GetBool("strict")

			f, err := opts.fetcher(cmd)
			if err != nil {
				return err
			}
			text, err := f.FetchCatalog(cmd.Context(), run, fh)
			if err != nil {
				return err
			}

			entries, err := domain.ParseEntries(text)
			if err != nil {
				return err
			}
			parse := domain.ParseCatalog
			if strict {
				parse = domain.ParseCatalogStrict
			}
			table, err := parse(text)
			if err != nil {
				return err
			}

			rows := catalogRows(entries, table, parameter)
			if opts.json() {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tPARAMETER\tLEVEL\tDESCRIPTION\tRANGE")
			for _, r := range rows {
				rng := r.Range.String()
				if r.Shadowed {
					rng += " (shadowed)"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Position, r.Parameter, r.Level, r.Description, rng)
			}
			return tw.Flush()
		},
	}
	runFlags(cmd)
	cmd.Flags().StringP("parameter", "p", "", "Only show this catalog abbreviation, e.g. TMP")
	cmd.Flags().Bool("strict", false, "Fail on duplicate (parameter, level) lines")
	return cmd
}

// catalogRows pairs each entry with the range the table resolves for it. A
// duplicate line resolves to its first occurrence and is marked shadowed.
func catalogRows(entries []domain.CatalogEntry, table domain.OffsetTable, parameter string) []catalogRow {
	seen := make(map[[2]string]bool, len(entries))
	rows := make([]catalogRow, 0, len(entries))
	for _, e := range entries {
		key := [2]string{e.Parameter, e.Level}
		shadowed := seen[key]
		seen[key] = true
		if parameter != "" && e.Parameter != parameter {
			continue
		}
		r, err := table.Resolve(e.Parameter, e.Level)
		if err != nil {
			continue
		}
		rows = append(rows, catalogRow{
			Position:    e.Position,
			Parameter:   e.Parameter,
			Level:       e.Level,
			Description: e.Description,
			Range:       r,
			Shadowed:    shadowed,
		})
	}
	return rows
}
