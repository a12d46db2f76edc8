package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"analytics-export/internal/analyticsdata"
	"analytics-export/internal/auth"
	"analytics-export/internal/components/chrono"
	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/config"
	"analytics-export/internal/pipeline"
	"analytics-export/internal/sink"
	"analytics-export/lib/restyutil"
	libtelemetry "analytics-export/lib/telemetry"
)

const serviceName = "analytics-export"

func configError(err error) error {
	return &pipeline.StageError{Stage: pipeline.StageConfig, Err: err}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, configError(err)
	}
	return cfg, nil
}

// setupTelemetry installs the otel providers, the returned func flushes them.
func setupTelemetry(ctx context.Context, cfg config.Config) func() {
	t, err := libtelemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := t.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}
}

func httpOutput() (telemetry.MessageOutput, error) {
	if *dumpHttp == "" {
		return nil, nil
	}
	output, err := restyutil.NewFilesystemOutput(*dumpHttp)
	if err != nil {
		return nil, err
	}
	slog.Info("dumping http exchanges", "dir", output.Directory())
	return output, nil
}

// storeLabel names the store in user facing output without echoing DSN credentials.
func storeLabel(store config.StoreConfig) string {
	if store.Driver == config.DriverSqlite {
		return store.Path
	}
	return fmt.Sprintf("%s table %s", store.Driver, store.Table)
}

func newPipeline(cfg config.Config, sinks []sink.Sink, notifier pipeline.Notifier) (pipeline.Pipeline, error) {
	tel := telemetry.SlogAPI{}

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return pipeline.Pipeline{}, configError(fmt.Errorf("load timezone: %w", err))
	}
	// stdout only carries the final result line
	provider, err := auth.NewProvider(cfg, os.Stderr, tel)
	if err != nil {
		return pipeline.Pipeline{}, configError(err)
	}
	output, err := httpOutput()
	if err != nil {
		return pipeline.Pipeline{}, configError(err)
	}

	deps := pipeline.Dependencies{
		Auth: provider,
		NewRunner: pipeline.NewApiRunner(analyticsdata.ClientOptions{
			BaseUrl: cfg.Api.BaseUrl,
			Timeout: cfg.Api.Timeout.Std(),
			Output:  output,
		}, tel),
		Clock:    clock,
		Sinks:    sinks,
		Notifier: notifier,
	}

	return pipeline.New(deps, pipeline.Options{
		PropertyId: cfg.PropertyId,
		DateStamp:  cfg.DateStamp,
	}, tel), nil
}
