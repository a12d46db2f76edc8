package record

import (
	"errors"
	"fmt"
	"time"

	"analytics-export/internal/analyticsdata"
	"analytics-export/internal/components/chrono"
)

var ErrMalformedRow = errors.New("malformed report row")

// Columns is the column order shared by the csv file and the table.
var Columns = []string{"country", "city", "activeUsers", "sessions", "screenPageViews", "date"}

// MetricRecord is one flattened report row, values are kept exactly as
// the API returned them.
type MetricRecord struct {
	Country         string `json:"country"`
	City            string `json:"city"`
	ActiveUsers     string `json:"activeUsers"`
	Sessions        string `json:"sessions"`
	ScreenPageViews string `json:"screenPageViews"`
	Date            string `json:"date"`
}

// Values returns the record's fields in Columns order.
func (r MetricRecord) Values() []string {
	return []string{r.Country, r.City, r.ActiveUsers, r.Sessions, r.ScreenPageViews, r.Date}
}

// FromValues is the inverse of Values.
func FromValues(values []string) (MetricRecord, error) {
	if len(values) != len(Columns) {
		return MetricRecord{}, fmt.Errorf("expected %d values, got %d", len(Columns), len(values))
	}
	return MetricRecord{
		Country:         values[0],
		City:            values[1],
		ActiveUsers:     values[2],
		Sessions:        values[3],
		ScreenPageViews: values[4],
		Date:            values[5],
	}, nil
}

// Flatten turns every row of the response into a MetricRecord stamped with `stamp`.
// A response without rows yields an empty slice.
func Flatten(res analyticsdata.RunReportResponse, stamp string) ([]MetricRecord, error) {
	out := make([]MetricRecord, 0, len(res.Rows))
	for i, row := range res.Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 3 {
			return nil, fmt.Errorf(
				"%w: row %d has %d dimension values and %d metric values, expected at least 2 and 3",
				ErrMalformedRow, i, len(row.DimensionValues), len(row.MetricValues),
			)
		}
		out = append(out, MetricRecord{
			Country:         row.DimensionValues[0].Value,
			City:            row.DimensionValues[1].Value,
			ActiveUsers:     row.MetricValues[0].Value,
			Sessions:        row.MetricValues[1].Value,
			ScreenPageViews: row.MetricValues[2].Value,
			Date:            stamp,
		})
	}
	return out, nil
}

const (
	// StampQuery dates records with the day that was queried.
	StampQuery = "query"
	// StampRun dates records with the day the export ran on.
	StampRun = "run"
)

// Stamp decides the date written into every record.
func Stamp(policy string, clock chrono.API, queried time.Time) (string, error) {
	switch policy {
	case StampQuery:
		return chrono.Date(queried), nil
	case StampRun:
		return chrono.Date(clock.Now()), nil
	default:
		return "", fmt.Errorf("unknown date stamp policy '%s'", policy)
	}
}
