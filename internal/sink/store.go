package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"analytics-export/internal/components/assert"
	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/config"
	"analytics-export/internal/db"
	"analytics-export/internal/record"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_store_rollback = "store.rollback"
	report_store_close    = "store.close"
)

// Opener connects to the store, db.Open in production.
type Opener = func(ctx context.Context, cfg config.StoreConfig) (*sql.DB, error)

// Store appends records to the configured table inside a single
// transaction, either every record is inserted or none is. It never
// creates the table.
type Store struct {
	cfg  config.StoreConfig
	open Opener
	tel  telemetry.API
}

func NewStore(cfg config.StoreConfig, tel telemetry.API) Store {
	return NewStoreWithOpener(cfg, db.Open, tel)
}

func NewStoreWithOpener(cfg config.StoreConfig, open Opener, tel telemetry.API) Store {
	assert.NotEmptyStr(cfg.Table)
	assert.NotNil(open)
	return Store{
		cfg:  cfg,
		open: open,
		tel:  telemetry.NewScopedAPI("sink", tel),
	}
}

func (s Store) Name() string {
	return "store"
}

func (s Store) Write(ctx context.Context, records []record.MetricRecord) (err error) {
	ctx, span := tracer.Start(ctx, "store:Write")
	defer span.End()
	span.SetAttributes(
		attribute.String("driver", s.cfg.Driver),
		attribute.String("table", s.cfg.Table),
		attribute.Int("records", len(records)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write records to store")
		}
	}()

	err = db.ValidateTable(s.cfg.Table)
	if err != nil {
		return err
	}

	database, err := s.open(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := database.Close()
		if closeErr != nil {
			s.tel.ReportWarning(report_store_close, closeErr)
		}
	}()

	makeTx := db.NewMakeTx(database, db.DialectOf(s.cfg.Driver))
	txqry, discard, commit, err := makeTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		rbErr := discard()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.tel.ReportBroken(report_store_rollback, rbErr)
		}
	}()

	for i, r := range records {
		err = txqry.InsertMetricRecord(ctx, s.cfg.Table, db.InsertMetricRecordParams{
			Country:         r.Country,
			City:            r.City,
			Activeusers:     r.ActiveUsers,
			Sessions:        r.Sessions,
			Screenpageviews: r.ScreenPageViews,
			Date:            r.Date,
		})
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	err = commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.tel.ReportCount("store.records", int64(len(records)))
	return nil
}
