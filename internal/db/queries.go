package db

import (
	"context"
	"fmt"
	"strings"
)

// rebind rewrites `?` placeholders for the query's dialect.
func (q *Queries) rebind(query string) string {
	if q.dialect != DialectDollar {
		return query
	}
	var out strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			out.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

const insertMetricRecord = `-- name: InsertMetricRecord :exec
insert into %s (country, city, activeUsers, sessions, screenPageViews, date)
values (?, ?, ?, ?, ?, ?)
`

type InsertMetricRecordParams struct {
	Country         string
	City            string
	Activeusers     string
	Sessions        string
	Screenpageviews string
	Date            string
}

func (q *Queries) InsertMetricRecord(ctx context.Context, table string, arg InsertMetricRecordParams) error {
	err := ValidateTable(table)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, q.rebind(fmt.Sprintf(insertMetricRecord, table)),
		arg.Country,
		arg.City,
		arg.Activeusers,
		arg.Sessions,
		arg.Screenpageviews,
		arg.Date,
	)
	return err
}

const countMetricRecords = `-- name: CountMetricRecords :one
select count(*) from %s
`

func (q *Queries) CountMetricRecords(ctx context.Context, table string) (int64, error) {
	err := ValidateTable(table)
	if err != nil {
		return 0, err
	}
	row := q.db.QueryRowContext(ctx, fmt.Sprintf(countMetricRecords, table))
	var count int64
	err = row.Scan(&count)
	return count, err
}

const listMetricRecords = `-- name: ListMetricRecords :many
select country, city, activeUsers, sessions, screenPageViews, date from %s
`

type ListMetricRecordsRow struct {
	Country         string
	City            string
	Activeusers     string
	Sessions        string
	Screenpageviews string
	Date            string
}

func (q *Queries) ListMetricRecords(ctx context.Context, table string) ([]ListMetricRecordsRow, error) {
	err := ValidateTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(listMetricRecords, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListMetricRecordsRow
	for rows.Next() {
		var i ListMetricRecordsRow
		if err := rows.Scan(
			&i.Country,
			&i.City,
			&i.Activeusers,
			&i.Sessions,
			&i.Screenpageviews,
			&i.Date,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
