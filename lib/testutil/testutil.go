package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	devenv "analytics-export/dev/env"
	"analytics-export/internal/config"
	"analytics-export/internal/db"
	"analytics-export/pkg/migrations"
)

type StoreParams struct {
	// if unspecified, it will use `analytics_table`
	Table string
	// if unspecified, it will use `:memory:`
	DbPath string
	// skips creating the table
	NoSchema bool
}

type StoreResult struct {
	DB     *sql.DB
	Config config.StoreConfig
}

// SetupStore opens a sqlite store for a test, the db is closed when the test ends.
func SetupStore(t testing.TB, params StoreParams) StoreResult {
	t.Helper()

	dbpath := ":memory:"
	if params.DbPath != "" && params.DbPath != ":memory:" {
		var err error
		dbpath, err = devenv.ResolvePath(params.DbPath)
		if err != nil {
			t.Fatal(err)
		}
	}
	table := params.Table
	if table == "" {
		table = "analytics_table"
	}
	cfg := config.StoreConfig{
		Driver: config.DriverSqlite,
		Path:   dbpath,
		Table:  table,
	}

	ctx := context.Background()
	database, err := db.Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	if !params.NoSchema {
		err = migrations.Migrate(ctx, database, table)
		if err != nil {
			t.Fatal(err)
		}
	}

	return StoreResult{
		DB:     database,
		Config: cfg,
	}
}

// WriteServiceAccountKey writes a service account key file whose token
// endpoint is tokenUrl and returns its path.
func WriteServiceAccountKey(t testing.TB, tokenUrl string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	contents, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "analytics-export-test",
		"private_key_id": "test-key",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "exporter@analytics-export-test.iam.gserviceaccount.com",
		"client_id":      "1",
		"token_uri":      tokenUrl,
	})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "service_account.json")
	err = os.WriteFile(path, contents, 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}
