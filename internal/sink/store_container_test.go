package sink

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"analytics-export/internal/components/telemetry"
	"analytics-export/internal/config"
	"analytics-export/internal/db"
	"analytics-export/internal/record"
	"analytics-export/pkg/migrations"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type containerStore struct {
	image   string
	port    nat.Port
	env     map[string]string
	waitFor wait.Strategy
	driver  string
	dsn     func(host, port string) string
}

var containerStores = []containerStore{
	{
		image: "postgres:16-alpine",
		port:  "5432/tcp",
		env: map[string]string{
			"POSTGRES_USER":     "analytics",
			"POSTGRES_PASSWORD": "analytics",
			"POSTGRES_DB":       "analytics",
		},
		waitFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
		driver: config.DriverPostgres,
		dsn: func(host, port string) string {
			return fmt.Sprintf("postgres://analytics:analytics@%s:%s/analytics?sslmode=disable", host, port)
		},
	},
	{
		image: "mysql:8.4",
		port:  "3306/tcp",
		env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "analytics",
			"MYSQL_DATABASE":      "analytics",
		},
		waitFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(2 * time.Minute),
		driver: config.DriverMysql,
		dsn: func(host, port string) string {
			return fmt.Sprintf("root:analytics@tcp(%s:%s)/analytics", host, port)
		},
	},
}

func startContainerStore(t *testing.T, target containerStore) config.StoreConfig {
	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        target.image,
				ExposedPorts: []string{string(target.port)},
				Env:          target.env,
				WaitingFor:   target.waitFor,
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := container.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, target.port)
	require.NoError(t, err)

	return config.StoreConfig{
		Driver: target.driver,
		Path:   target.dsn(host, port.Port()),
		Table:  "analytics_table",
	}
}

func TestStoreContainers(t *testing.T) {
	if os.Getenv("ANALYTICS_EXPORT_CONTAINERS") != "1" {
		t.Skip("set ANALYTICS_EXPORT_CONTAINERS=1 to run store tests against postgres and mysql")
	}

	for _, target := range containerStores {
		t.Run(target.driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := startContainerStore(t, target)

			database, err := migrations.OpenAndMigrateDB(ctx, cfg)
			require.NoError(t, err)
			defer database.Close()

			store := NewStore(cfg, telemetry.NewRecorder())
			require.NoError(t, store.Write(ctx, []record.MetricRecord{seattle, paris}))

			qry := db.New(database, db.DialectOf(cfg.Driver))
			count, err := qry.CountMetricRecords(ctx, cfg.Table)
			require.NoError(t, err)
			require.Equal(t, int64(2), count)

			rows, err := qry.ListMetricRecords(ctx, cfg.Table)
			require.NoError(t, err)
			require.ElementsMatch(t, []string{"Seattle", "Paris, 75"}, []string{rows[0].City, rows[1].City})
		})
	}
}
