package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dawa-cli/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync log",
	Long:  "Displays the most recent committed sync runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "status: open store")
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.Runs(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		if len(runs) == 0 && isTable(format) {
			zap.L().Info("no sync runs found, run 'dawa-cli sync' to load postal codes")
			return nil
		}
		if runs == nil {
			runs = []store.Run{}
		}

		return writeOutput(cmd.OutOrStdout(), format, runs, func(w io.Writer) { formatRuns(w, runs) })
	},
}

func init() {
	statusCmd.Flags().Int("limit", store.DefaultRunsLimit, "number of runs to show")
	statusCmd.Flags().String("format", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(statusCmd)
}

// formatRuns writes a tabular representation of sync runs to out.
func formatRuns(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMODE\tSTARTED\tDURATION\tPOSTAL CODES\tMUNICIPALITIES\tLINKS")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t--------\t------------\t--------------\t-----")

	for _, r := range runs {
		dur := r.CompletedAt.Sub(r.StartedAt).Round(time.Second)
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID,
			r.Mode,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.PostalCodes,
			r.Municipalities,
			r.Links,
		)
	}
	_ = w.Flush()
}
