package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"analytics-export/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpen(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// DialectOf returns the placeholder dialect of a store driver.
func DialectOf(driver string) Dialect {
	if driver == config.DriverPostgres {
		return DialectDollar
	}
	return DialectQuestion
}

// Open connects to the configured store and pings it.
func Open(ctx context.Context, cfg config.StoreConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, wrapOpen(fmt.Errorf("a path was not specified"))
	}

	var db *sql.DB
	var err error
	switch cfg.Driver {
	case config.DriverSqlite, "":
		db, err = openSqlite(cfg.Path)
	case config.DriverLibsql:
		db, err = openLibsql(cfg.Path, cfg.AuthToken)
	case config.DriverMysql:
		db, err = sql.Open("mysql", cfg.Path)
	case config.DriverPostgres:
		db, err = sql.Open("postgres", cfg.Path)
	default:
		err = fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, wrapOpen(err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, wrapOpen(err)
	}
	return db, nil
}

func openSqlite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openLibsql(rawUrl, authToken string) (*sql.DB, error) {
	if authToken != "" {
		parsed, err := url.Parse(rawUrl)
		if err != nil {
			return nil, err
		}
		query := parsed.Query()
		query.Set("authToken", authToken)
		parsed.RawQuery = query.Encode()
		rawUrl = parsed.String()
	}
	return sql.Open("libsql", rawUrl)
}
