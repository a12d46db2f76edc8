package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	devenv "analytics-export/dev/env"
	"analytics-export/internal/config"
	"analytics-export/pkg/migrations"
)

const localConfig = `{
  // local overrides of config.json5, this file is not committed
  credential_path: "<dev_state>/client_secret.json",
  output_csv_path: "<dev_state>/analytics_data.csv",
  store: {
    driver: "sqlite",
    path: "<dev_state>/analytics.db",
  },
  auth: {
    mode: "cached",
    token_cache_path: "<dev_state>/token.json",
  },
}
`

func createDb(ctx context.Context, filename string) error {
	path, err := devenv.ResolvePath("<dev_state>/" + filename)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	db, err := migrations.OpenAndMigrateDB(ctx, config.StoreConfig{
		Driver: config.DriverSqlite,
		Path:   path,
		Table:  "analytics_table",
	})
	if err != nil {
		return err
	}
	return db.Close()
}

func writeLocalConfig() error {
	const path = "config.local.json5"
	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("local config already exists at", path)
		return nil
	}
	fmt.Println("writing local config to", path)
	return os.WriteFile(path, []byte(localConfig), 0600)
}

func PrintConfigLocations() {
	slog.Info("download the oauth client secret of a desktop app from the google cloud console into dev/.state/client_secret.json and set property_id in config.local.json5, then run `go run ./cmd/analytics-export auth`.")
}
