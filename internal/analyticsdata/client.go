package analyticsdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"analytics-export/internal/components/assert"
	"analytics-export/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_run_report = "client.run-report"
)

var tracer = otel.Tracer("analytics-export.internal.analyticsdata")

// APIError is a non-2xx reply from the API.
type APIError struct {
	Status  int
	Code    int
	State   string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analytics data api: http %d", e.Status)
	}
	return fmt.Sprintf("analytics data api: http %d %s: %s", e.Status, e.State, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type ClientOptions struct {
	BaseUrl string
	Timeout time.Duration
	// carries authentication, usually the result of oauth2.NewClient
	HttpClient *http.Client
	// receives full HTTP exchanges when set
	Output telemetry.MessageOutput
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(options ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)
	assert.NotEmptyStr(options.BaseUrl)

	tel = telemetry.NewScopedAPI("analyticsdata", tel)

	var client *resty.Client
	if options.HttpClient != nil {
		client = resty.NewWithClient(options.HttpClient)
	} else {
		client = resty.New()
	}
	client.SetBaseURL(strings.TrimSuffix(options.BaseUrl, "/"))
	client.SetHeader("user-agent", "analytics-export")
	if options.Timeout > 0 {
		client.SetTimeout(options.Timeout)
	}

	telemetry.InstrumentResty(client, tel, options.Output)

	return &Client{http: client, tel: tel}
}

// NormalizePropertyId accepts both "123" and "properties/123".
func NormalizePropertyId(propertyId string) string {
	return strings.TrimPrefix(strings.TrimSpace(propertyId), "properties/")
}

// RunReport executes a single runReport call, only the first page of rows is returned.
func (c *Client) RunReport(ctx context.Context, propertyId string, req RunReportRequest) (RunReportResponse, error) {
	ctx, span := tracer.Start(ctx, "RunReport")
	defer span.End()

	propertyId = NormalizePropertyId(propertyId)
	span.SetAttributes(attribute.String("property_id", propertyId))

	var out RunReportResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("propertyId", propertyId).
		SetBody(req).
		SetResult(&out).
		SetError(&errorEnvelope{}).
		Post("/properties/{propertyId}:runReport")
	if err != nil {
		c.tel.ReportBroken(report_client_run_report, err, propertyId)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to call runReport")
		return RunReportResponse{}, fmt.Errorf("run report: %w", err)
	}

	if res.IsError() {
		apiErr := &APIError{Status: res.StatusCode()}
		envelope, ok := res.Error().(*errorEnvelope)
		if ok && envelope != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.State = envelope.Error.Status
			apiErr.Message = envelope.Error.Message
		}
		c.tel.ReportBroken(report_client_run_report, apiErr, propertyId)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, "runReport returned an error")
		return RunReportResponse{}, apiErr
	}

	span.SetAttributes(
		attribute.Int("row_count", out.RowCount),
		attribute.Int("rows_returned", len(out.Rows)),
	)
	return out, nil
}
