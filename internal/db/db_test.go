package db

import (
	"context"
	"testing"

	"analytics-export/internal/config"

	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	schema, err := Schema("daily_metrics")
	require.NoError(t, err)
	require.Contains(t, schema, "create table if not exists daily_metrics (")
	require.Contains(t, schema, "screenPageViews integer not null")

	for _, table := range []string{"", "1table", "a-b", "t; drop table x", "t t"} {
		_, err := Schema(table)
		require.Error(t, err, table)
	}
}

func TestRebind(t *testing.T) {
	q := New(nil, DialectDollar)
	require.Equal(t, "values ($1, $2, $3)", q.rebind("values (?, ?, ?)"))

	q = New(nil, DialectQuestion)
	require.Equal(t, "values (?, ?)", q.rebind("values (?, ?)"))
}

func TestDialectOf(t *testing.T) {
	require.Equal(t, DialectDollar, DialectOf(config.DriverPostgres))
	require.Equal(t, DialectQuestion, DialectOf(config.DriverMysql))
	require.Equal(t, DialectQuestion, DialectOf(config.DriverSqlite))
	require.Equal(t, DialectQuestion, DialectOf(config.DriverLibsql))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, config.StoreConfig{
		Driver: config.DriverSqlite,
		Path:   ":memory:",
	})
	require.NoError(t, err)
	defer database.Close()

	schema, err := Schema("analytics_table")
	require.NoError(t, err)
	_, err = database.Exec(schema)
	require.NoError(t, err)

	makeTx := NewMakeTx(database, DialectQuestion)
	txqry, discard, commit, err := makeTx(ctx)
	require.NoError(t, err)
	err = txqry.InsertMetricRecord(ctx, "analytics_table", InsertMetricRecordParams{
		Country:         "US",
		City:            "Seattle",
		Activeusers:     "120",
		Sessions:        "150",
		Screenpageviews: "300",
		Date:            "2024-03-14",
	})
	require.NoError(t, err)
	require.NoError(t, discard())

	qry := New(database, DialectQuestion)
	count, err := qry.CountMetricRecords(ctx, "analytics_table")
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	txqry, _, commit, err = makeTx(ctx)
	require.NoError(t, err)
	err = txqry.InsertMetricRecord(ctx, "analytics_table", InsertMetricRecordParams{
		Country:         "US",
		City:            "Seattle",
		Activeusers:     "120",
		Sessions:        "150",
		Screenpageviews: "300",
		Date:            "2024-03-14",
	})
	require.NoError(t, err)
	require.NoError(t, commit())

	rows, err := qry.ListMetricRecords(ctx, "analytics_table")
	require.NoError(t, err)
	require.Equal(t, []ListMetricRecordsRow{{
		Country:         "US",
		City:            "Seattle",
		Activeusers:     "120",
		Sessions:        "150",
		Screenpageviews: "300",
		Date:            "2024-03-14",
	}}, rows)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle", Path: "x"})
	require.ErrorContains(t, err, "unsupported driver")

	_, err = Open(context.Background(), config.StoreConfig{Driver: config.DriverSqlite})
	require.Error(t, err)
}
