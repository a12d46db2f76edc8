package report

import (
	"context"
	"time"

	"analytics-export/internal/analyticsdata"
	"analytics-export/internal/components/assert"
	"analytics-export/internal/components/chrono"
	"analytics-export/internal/components/telemetry"
)

const (
	report_fetcher_truncated = "fetcher.truncated"
)

// Metrics are the metrics requested, in the order the flattener reads them.
var Metrics = []string{"activeUsers", "sessions", "screenPageViews"}

// Dimensions are the dimensions requested, in the order the flattener reads them.
var Dimensions = []string{"country", "city"}

// Runner is what the fetcher needs from the API client.
//
// note: fault injection point
type Runner interface {
	RunReport(ctx context.Context, propertyId string, req analyticsdata.RunReportRequest) (analyticsdata.RunReportResponse, error)
}

type Fetcher struct {
	runner     Runner
	propertyId string
	tel        telemetry.API
}

func NewFetcher(runner Runner, propertyId string, tel telemetry.API) Fetcher {
	assert.NotNil(runner)
	assert.NotEmptyStr(propertyId)
	return Fetcher{
		runner:     runner,
		propertyId: propertyId,
		tel:        telemetry.NewScopedAPI("report", tel),
	}
}

// Request builds the fixed single day query.
func Request(day time.Time) analyticsdata.RunReportRequest {
	date := chrono.Date(day)
	req := analyticsdata.RunReportRequest{
		DateRanges: []analyticsdata.DateRange{{StartDate: date, EndDate: date}},
	}
	for _, d := range Dimensions {
		req.Dimensions = append(req.Dimensions, analyticsdata.Dimension{Name: d})
	}
	for _, m := range Metrics {
		req.Metrics = append(req.Metrics, analyticsdata.Metric{Name: m})
	}
	return req
}

// Fetch runs the query for `day` and returns the raw response. Only the
// first page is fetched, a truncated response is reported but not an error.
func (f Fetcher) Fetch(ctx context.Context, day time.Time) (analyticsdata.RunReportResponse, error) {
	res, err := f.runner.RunReport(ctx, f.propertyId, Request(day))
	if err != nil {
		return analyticsdata.RunReportResponse{}, err
	}
	if res.RowCount > len(res.Rows) {
		f.tel.ReportWarning(report_fetcher_truncated, res.RowCount, len(res.Rows))
	}
	f.tel.ReportCount("fetcher.rows", int64(len(res.Rows)))
	return res, nil
}
