package analyticsdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"analytics-export/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestRunReport(t *testing.T) {
	var gotPath string
	var gotBody RunReportRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)

		w.Header().Set("content-type", "application/json; charset=UTF-8")
		w.Write([]byte(`{
			"dimensionHeaders": [{"name": "country"}, {"name": "city"}],
			"metricHeaders": [
				{"name": "activeUsers", "type": "TYPE_INTEGER"},
				{"name": "sessions", "type": "TYPE_INTEGER"},
				{"name": "screenPageViews", "type": "TYPE_INTEGER"}
			],
			"rows": [{
				"dimensionValues": [{"value": "US"}, {"value": "Seattle"}],
				"metricValues": [{"value": "120"}, {"value": "150"}, {"value": "300"}]
			}],
			"rowCount": 1,
			"metadata": {"currencyCode": "USD", "timeZone": "America/Los_Angeles"},
			"kind": "analyticsData#runReport"
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL + "/v1beta"}, telemetry.NewRecorder())
	req := RunReportRequest{
		DateRanges: []DateRange{{StartDate: "2024-07-14", EndDate: "2024-07-14"}},
		Metrics:    []Metric{{Name: "activeUsers"}},
	}
	res, err := client.RunReport(context.Background(), "properties/450680225", req)
	require.NoError(t, err)

	require.Equal(t, "/v1beta/properties/450680225:runReport", gotPath)
	require.Equal(t, req, gotBody)

	require.Equal(t, 1, res.RowCount)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "Seattle", res.Rows[0].DimensionValues[1].Value)
	require.Equal(t, "300", res.Rows[0].MetricValues[2].Value)
	require.Equal(t, "America/Los_Angeles", res.Metadata.TimeZone)
}

func TestRunReportAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "User does not have sufficient permissions for this property.", "status": "PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	recorder := telemetry.NewRecorder()
	client := NewClient(ClientOptions{BaseUrl: server.URL}, recorder)
	_, err := client.RunReport(context.Background(), "1", RunReportRequest{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.Status)
	require.Equal(t, "PERMISSION_DENIED", apiErr.State)
	require.Contains(t, apiErr.Error(), "sufficient permissions")
	require.True(t, recorder.Has("broken", report_client_run_report))
}

func TestRunReportTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(ClientOptions{BaseUrl: url}, telemetry.NewRecorder())
	_, err := client.RunReport(context.Background(), "1", RunReportRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestNormalizePropertyId(t *testing.T) {
	require.Equal(t, "42", NormalizePropertyId("42"))
	require.Equal(t, "42", NormalizePropertyId("properties/42"))
	require.Equal(t, "42", NormalizePropertyId(" 42 "))
}
