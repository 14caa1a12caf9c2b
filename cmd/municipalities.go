package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dawa-cli/internal/store"
)

var municipalitiesCmd = &cobra.Command{
	Use:   "municipalities",
	Short: "List stored municipalities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "municipalities: open store")
		}
		defer st.Close() //nolint:errcheck

		ms, err := st.Municipalities(ctx)
		if err != nil {
			return eris.Wrap(err, "municipalities")
		}

		if len(ms) == 0 && isTable(format) {
			zap.L().Info("no municipalities found, run 'dawa-cli sync' first")
			return nil
		}
		if ms == nil {
			ms = []store.Municipality{}
		}

		return writeOutput(cmd.OutOrStdout(), format, ms, func(w io.Writer) { formatMunicipalities(w, ms) })
	},
}

func init() {
	municipalitiesCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(municipalitiesCmd)
}

// formatMunicipalities writes a tabular representation of municipalities to out.
func formatMunicipalities(out io.Writer, ms []store.Municipality) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tNAME\tPOSTAL CODES")
	_, _ = fmt.Fprintln(w, "----\t----\t------------")
	for _, m := range ms {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", m.Code, m.Name, m.PostalCodes)
	}
	_ = w.Flush()
}
