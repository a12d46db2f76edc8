package commands

import (
	"context"
	"io"

	"analytics-export/internal/record"
	"analytics-export/internal/sink"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var fromCsv *string

func init() {
	fromCsv = previewCmd.Flags().String("from-csv", "", "Render an existing csv export instead of querying the API.")
	rootCmd.AddCommand(previewCmd)
}

// tableSink renders records instead of persisting them.
type tableSink struct {
	out io.Writer
}

func (s tableSink) Name() string {
	return "preview"
}

func (s tableSink) Write(ctx context.Context, records []record.MetricRecord) error {
	renderRecords(s.out, records)
	return nil
}

func renderRecords(out io.Writer, records []record.MetricRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(out)

	header := table.Row{}
	for _, col := range record.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, r := range records {
		row := table.Row{}
		for _, v := range r.Values() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", "", "", "", "records", len(records)})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var previewCmd = &cobra.Command{
	Use:   "preview [--from-csv <path/to/analytics_data.csv>]",
	Short: "Fetches and flattens yesterday's report and prints it without writing anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if *fromCsv != "" {
			records, err := sink.ReadCSV(*fromCsv)
			if err != nil {
				return err
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flush := setupTelemetry(cmd.Context(), cfg)
		defer flush()

		p, err := newPipeline(cfg, []sink.Sink{tableSink{out: cmd.OutOrStdout()}}, nil)
		if err != nil {
			return err
		}
		_, err = p.Run(cmd.Context())
		return err
	},
}
