// Package pipeline runs one export: authenticate, fetch yesterday's
// report, flatten it and hand the records to every sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"analytics-export/internal/analyticsdata"
	"analytics-export/internal/auth"
	"analytics-export/internal/components/assert"
	"analytics-export/internal/components/chrono"
	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/record"
	"analytics-export/internal/report"
	"analytics-export/internal/sink"
	libtelemetry "analytics-export/lib/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

var tracer = otel.Tracer("analytics-export.internal.pipeline")
var meter = otel.Meter("analytics-export.internal.pipeline")

const (
	report_pipeline_notify  = "notify"
	report_pipeline_counter = "records-written-counter"
	report_pipeline_sink    = "sink"
)

// Notifier receives the run summary once a run finishes.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// RunnerFactory builds the report API client on top of an authenticated token source.
type RunnerFactory = func(ctx context.Context, tokenSource oauth2.TokenSource) report.Runner

// NewApiRunner is the RunnerFactory used outside of tests.
func NewApiRunner(options analyticsdata.ClientOptions, tel telemetry.API) RunnerFactory {
	return func(ctx context.Context, tokenSource oauth2.TokenSource) report.Runner {
		options.HttpClient = oauth2.NewClient(ctx, tokenSource)
		return analyticsdata.NewClient(options, tel)
	}
}

type Dependencies struct {
	Auth      auth.Provider
	NewRunner RunnerFactory
	Clock     chrono.API
	// written in order, every sink is attempted
	Sinks []sink.Sink
	// optional
	Notifier Notifier
}

type Options struct {
	PropertyId string
	DateStamp  string
}

type Pipeline struct {
	deps           Dependencies
	options        Options
	tel            telemetry.API
	recordsWritten metric.Int64Counter
}

func New(deps Dependencies, options Options, tel telemetry.API) Pipeline {
	assert.NotNil(deps.Auth)
	assert.NotNil(deps.NewRunner)
	assert.NotNil(deps.Clock)
	assert.NotEmptyStr(options.PropertyId)

	tel = telemetry.NewScopedAPI("pipeline", tel)
	recordsWritten, err := meter.Int64Counter(
		"records_written",
		metric.WithDescription("Records persisted by a sink."),
	)
	if err != nil {
		tel.ReportBroken(report_pipeline_counter, err)
	}

	return Pipeline{
		deps:           deps,
		options:        options,
		tel:            tel,
		recordsWritten: recordsWritten,
	}
}

func (p Pipeline) stage(ctx context.Context, stage Stage, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("pipeline:%s", stage))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("%s failed", stage))
		return stageError(stage, err)
	}
	return nil
}

// Run executes the export once. The returned summary is filled in as far
// as the run got, also when an error is returned.
func (p Pipeline) Run(ctx context.Context) (summary Summary, err error) {
	summary = Summary{
		RunId:     uuid.NewString(),
		StartedAt: p.deps.Clock.Now(),
	}
	day := chrono.Yesterday(p.deps.Clock)
	summary.Day = chrono.Date(day)

	ctx, span := tracer.Start(ctx, "pipeline:Run", trace.WithAttributes(
		attribute.String("run_id", summary.RunId),
		attribute.String("day", summary.Day),
	))
	defer span.End()

	defer func() {
		summary.FinishedAt = p.deps.Clock.Now()
		summary.Err = err
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
		}
		p.notify(ctx, summary)
		libtelemetry.RecordPerfStats(ctx)
	}()

	var tokenSource oauth2.TokenSource
	err = p.stage(ctx, StageAuth, func(ctx context.Context) error {
		var err error
		tokenSource, err = p.deps.Auth.TokenSource(ctx)
		return err
	})
	if err != nil {
		return summary, err
	}

	var res analyticsdata.RunReportResponse
	err = p.stage(ctx, StageFetch, func(ctx context.Context) error {
		fetcher := report.NewFetcher(
			p.deps.NewRunner(ctx, tokenSource),
			p.options.PropertyId,
			p.tel,
		)
		var err error
		res, err = fetcher.Fetch(ctx, day)
		return err
	})
	if err != nil {
		return summary, err
	}
	summary.RowCount = res.RowCount

	var records []record.MetricRecord
	err = p.stage(ctx, StageFlatten, func(ctx context.Context) error {
		stamp, err := record.Stamp(p.options.DateStamp, p.deps.Clock, day)
		if err != nil {
			return err
		}
		summary.Stamp = stamp
		records, err = record.Flatten(res, stamp)
		return err
	})
	if err != nil {
		return summary, err
	}
	summary.Records = len(records)

	summary.Sinks = p.write(ctx, records)
	errlist := []error{}
	for _, outcome := range summary.Sinks {
		if outcome.Err != nil {
			errlist = append(errlist, outcome.Err)
		}
	}
	return summary, errors.Join(errlist...)
}

// write hands the records to every sink even if an earlier one failed.
func (p Pipeline) write(ctx context.Context, records []record.MetricRecord) []SinkOutcome {
	outcomes := make([]SinkOutcome, 0, len(p.deps.Sinks))
	for _, s := range p.deps.Sinks {
		stage := Stage(s.Name())
		err := p.stage(ctx, stage, func(ctx context.Context) error {
			return s.Write(ctx, records)
		})
		if err != nil {
			p.tel.ReportWarning(report_pipeline_sink, s.Name(), err)
		} else if p.recordsWritten != nil {
			p.recordsWritten.Add(ctx, int64(len(records)), metric.WithAttributes(
				attribute.String("sink", s.Name()),
			))
		}
		outcomes = append(outcomes, SinkOutcome{Name: s.Name(), Err: err})
	}
	return outcomes
}

func (p Pipeline) notify(ctx context.Context, summary Summary) {
	if p.deps.Notifier == nil {
		return
	}
	// the run's own context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	err := p.deps.Notifier.Notify(ctx, summary.Subject(), summary.Body())
	if err != nil {
		p.tel.ReportWarning(report_pipeline_notify, err)
	}
}
