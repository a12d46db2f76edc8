package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"analytics-export/internal/analyticsdata"
	"analytics-export/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	propertyId string
	req        analyticsdata.RunReportRequest
	res        analyticsdata.RunReportResponse
	err        error
}

func (f *fakeRunner) RunReport(ctx context.Context, propertyId string, req analyticsdata.RunReportRequest) (analyticsdata.RunReportResponse, error) {
	f.propertyId = propertyId
	f.req = req
	return f.res, f.err
}

func TestRequest(t *testing.T) {
	req := Request(time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC))
	require.Equal(t, analyticsdata.RunReportRequest{
		DateRanges: []analyticsdata.DateRange{{StartDate: "2024-07-14", EndDate: "2024-07-14"}},
		Dimensions: []analyticsdata.Dimension{{Name: "country"}, {Name: "city"}},
		Metrics: []analyticsdata.Metric{
			{Name: "activeUsers"},
			{Name: "sessions"},
			{Name: "screenPageViews"},
		},
	}, req)
}

func TestFetch(t *testing.T) {
	runner := &fakeRunner{res: analyticsdata.RunReportResponse{
		Rows:     make([]analyticsdata.Row, 2),
		RowCount: 2,
	}}
	recorder := telemetry.NewRecorder()
	fetcher := NewFetcher(runner, "450680225", recorder)

	res, err := fetcher.Fetch(context.Background(), time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "450680225", runner.propertyId)
	require.Equal(t, "2024-07-14", runner.req.DateRanges[0].StartDate)
	require.False(t, recorder.Has("warning", report_fetcher_truncated))
}

func TestFetchTruncated(t *testing.T) {
	runner := &fakeRunner{res: analyticsdata.RunReportResponse{
		Rows:     make([]analyticsdata.Row, 2),
		RowCount: 20000,
	}}
	recorder := telemetry.NewRecorder()
	fetcher := NewFetcher(runner, "1", recorder)

	res, err := fetcher.Fetch(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.True(t, recorder.Has("warning", report_fetcher_truncated))
}

func TestFetchError(t *testing.T) {
	failure := errors.New("boom")
	fetcher := NewFetcher(&fakeRunner{err: failure}, "1", telemetry.NewRecorder())
	_, err := fetcher.Fetch(context.Background(), time.Now())
	require.ErrorIs(t, err, failure)
}
