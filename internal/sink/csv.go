package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"analytics-export/internal/components/assert"
	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/record"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/sink")

const (
	report_csv_cleanup = "csv.cleanup-temp-file"
)

// CSV overwrites a file with a header line followed by one line per record.
type CSV struct {
	path string
	tel  telemetry.API
}

func NewCSV(path string, tel telemetry.API) CSV {
	assert.NotEmptyStr(path)
	return CSV{
		path: path,
		tel:  telemetry.NewScopedAPI("sink", tel),
	}
}

func (c CSV) Name() string {
	return "csv"
}

// Write replaces the file atomically: records are written to a temporary
// file next to it which is then renamed over the target.
func (c CSV) Write(ctx context.Context, records []record.MetricRecord) (err error) {
	ctx, span := tracer.Start(ctx, "csv:Write")
	defer span.End()
	span.SetAttributes(
		attribute.String("path", c.path),
		attribute.Int("records", len(records)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write csv")
		}
	}()

	dir := filepath.Dir(c.path)
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		f.Close()
		rmErr := os.Remove(f.Name())
		if rmErr != nil && !os.IsNotExist(rmErr) {
			c.tel.ReportWarning(report_csv_cleanup, rmErr)
		}
	}()

	err = EncodeCSV(ctx, f, records)
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	err = os.Chmod(f.Name(), 0644)
	if err != nil {
		return fmt.Errorf("chmod csv: %w", err)
	}
	err = os.Rename(f.Name(), c.path)
	if err != nil {
		return fmt.Errorf("replace csv: %w", err)
	}

	c.tel.ReportCount("csv.records", int64(len(records)))
	return nil
}

// EncodeCSV writes the header and the records to w.
func EncodeCSV(ctx context.Context, w io.Writer, records []record.MetricRecord) error {
	writer := csv.NewWriter(w)
	err := writer.Write(record.Columns)
	if err != nil {
		return err
	}
	for _, r := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = writer.Write(r.Values())
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var ErrCsvHeader = errors.New("unexpected csv header")

// ReadCSV reads back a file produced by the CSV sink.
func ReadCSV(path string) ([]record.MetricRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

func DecodeCSV(r io.Reader) ([]record.MetricRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(record.Columns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range record.Columns {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is '%s', expected '%s'", ErrCsvHeader, i, header[i], col)
		}
	}

	records := []record.MetricRecord{}
	for {
		values, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rec, err := record.FromValues(values)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
