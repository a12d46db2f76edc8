package commands

import (
	"fmt"

	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/config"
	"analytics-export/internal/notify"
	"analytics-export/internal/pipeline"
	"analytics-export/internal/sink"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path/to/config.json5>]",
	Short: "Exports yesterday's report to the csv file and the store.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), pipeline.Summary{Err: err}.Message("", ""))
			exitCode = pipeline.ExitCode(err, config.ExitStageCodes)
			return
		}

		flush := setupTelemetry(cmd.Context(), cfg)
		defer flush()

		tel := telemetry.SlogAPI{}
		sinks := []sink.Sink{
			sink.NewCSV(cfg.OutputCsvPath, tel),
			sink.NewStore(cfg.Store, tel),
		}
		var notifier pipeline.Notifier
		if cfg.Notify.Enabled() {
			notifier = notify.NewSMTP(cfg.Notify.Smtp)
		}

		p, err := newPipeline(cfg, sinks, notifier)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), pipeline.Summary{Err: err}.Message("", ""))
			exitCode = pipeline.ExitCode(err, cfg.ExitPolicy)
			return
		}

		summary, err := p.Run(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), summary.Message(cfg.OutputCsvPath, storeLabel(cfg.Store)))
		exitCode = pipeline.ExitCode(err, cfg.ExitPolicy)
	},
}
