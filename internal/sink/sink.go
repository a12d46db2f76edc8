package sink

import (
	"context"

	"analytics-export/internal/record"
)

// Sink persists a complete, materialized batch of records.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []record.MetricRecord) error
}
