package main

import (
	"context"
	"time"

	mongoMigration "github.com/PaingThuTa/booking-system-intern/internal/migrations/mongo"
	postgresMigration "github.com/PaingThuTa/booking-system-intern/internal/migrations/postgres"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
)

const (
	JobName          = "portal-migration"
	migrationTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "store_driver", cfg.StoreDriver)

	var err error
	switch cfg.StoreDriver {
	case config.StoreMongo:
		cfg.SetMongo()
		err = mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
	case config.StorePostgres:
		cfg.SetPostgres()
		err = postgresMigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log)
	default:
		cfg.Log.Info("Store driver needs no migrations")
		return
	}

	if err != nil {
		// Fatal exits without running deferred calls
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
