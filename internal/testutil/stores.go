// Package testutil opens the stores the service tests run against. The
// memory store is always available; Postgres and Mongo run only when
// TEST_POSTGRES_DSN or TEST_MONGO_URI is set, each in a throwaway schema or
// database that is dropped when the test ends.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	bookingsrepo "github.com/PaingThuTa/booking-system-intern/internal/bookings/repository"
	mongomigrations "github.com/PaingThuTa/booking-system-intern/internal/migrations/mongo"
	pgmigrations "github.com/PaingThuTa/booking-system-intern/internal/migrations/postgres"
	timeblocksrepo "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/repository"
	usersrepo "github.com/PaingThuTa/booking-system-intern/internal/users/repository"
	"github.com/PaingThuTa/booking-system-intern/pkg/client"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	mongodb "github.com/PaingThuTa/booking-system-intern/pkg/db/mongo"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/postgres"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	EnvTestPostgresDSN = "TEST_POSTGRES_DSN"
	EnvTestMongoURI    = "TEST_MONGO_URI"

	ConnectionTimeout = 10 * time.Second
	// enough connections for every contender of a race test to hold one
	testPoolSize = 32
)

// Stores is one backend wired the way cmd/portal wires it.
type Stores struct {
	Name     string
	Tx       db.TransactionManager
	Users    usersrepo.UserRepository
	Blocks   timeblocksrepo.TimeBlockRepository
	Bookings bookingsrepo.BookingRepository
	Log      *logger.Logger
}

type opener struct {
	name string
	open func(t *testing.T) *Stores
}

var openers = []opener{
	{"memory", Memory},
	{"postgres", Postgres},
	{"mongo", Mongo},
}

// Each runs fn once per backend as a subtest. Backends without a configured
// server are skipped.
func Each(t *testing.T, fn func(t *testing.T, st *Stores)) {
	t.Helper()
	for _, o := range openers {
		t.Run(o.name, func(t *testing.T) {
			fn(t, o.open(t))
		})
	}
}

func NewLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func Memory(t *testing.T) *Stores {
	t.Helper()
	store := memory.NewStore()
	return &Stores{
		Name:     "memory",
		Tx:       store,
		Users:    usersrepo.NewMemoryUserRepository(store),
		Blocks:   timeblocksrepo.NewMemoryTimeBlockRepository(store),
		Bookings: bookingsrepo.NewMemoryBookingRepository(store),
		Log:      NewLogger(),
	}
}

// Postgres migrates a fresh schema and points every pooled connection at it
// through search_path.
func Postgres(t *testing.T) *Stores {
	t.Helper()
	dsn := os.Getenv(EnvTestPostgresDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvTestPostgresDSN)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	schema := "portal_test_" + shortID()
	execAdmin(t, dsn, "CREATE SCHEMA "+schema)
	t.Cleanup(func() {
		execAdmin(t, dsn, "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
	})

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", EnvTestPostgresDSN, err)
	}
	poolCfg.MaxConns = testPoolSize
	poolCfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	// registered after the schema drop, so it runs first
	t.Cleanup(pool.Close)

	log := NewLogger()
	if err := pgmigrations.RunMigration(ctx, pool, log); err != nil {
		t.Fatalf("failed to migrate schema %s: %v", schema, err)
	}

	return &Stores{
		Name:     "postgres",
		Tx:       postgres.NewTransactionManager(pool),
		Users:    usersrepo.NewPostgresUserRepository(pool),
		Blocks:   timeblocksrepo.NewPostgresTimeBlockRepository(pool),
		Bookings: bookingsrepo.NewPostgresBookingRepository(pool),
		Log:      log,
	}
}

// Mongo needs a replica set, since admission runs in transactions.
func Mongo(t *testing.T) *Stores {
	t.Helper()
	uri := os.Getenv(EnvTestMongoURI)
	if uri == "" {
		t.Skipf("%s not set", EnvTestMongoURI)
	}

	log := NewLogger()
	c := client.NewClient()
	c.SetMongo(log, uri, ConnectionTimeout)

	dbName := "portal_test_" + shortID()
	cfg := &config.Config{
		Log:               log,
		Client:            c,
		MongoDatabaseName: dbName,
		ReadTimeout:       ConnectionTimeout,
		WriteTimeout:      ConnectionTimeout,
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
		defer cancel()
		if err := c.Mongo.Database(dbName).Drop(ctx); err != nil {
			t.Logf("warning: failed to drop database %s: %v", dbName, err)
		}
		c.GracefulShutdown(log)
	})

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()
	if err := mongomigrations.RunMigration(ctx, c.Mongo, dbName, log); err != nil {
		t.Fatalf("failed to migrate database %s: %v", dbName, err)
	}

	return &Stores{
		Name:     "mongo",
		Tx:       mongodb.NewTransactionManager(c.Mongo),
		Users:    usersrepo.NewMongoUserRepository(cfg),
		Blocks:   timeblocksrepo.NewMongoTimeBlockRepository(cfg),
		Bookings: bookingsrepo.NewMongoBookingRepository(cfg),
		Log:      log,
	}
}

func execAdmin(t *testing.T, dsn, statement string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, statement); err != nil {
		t.Fatalf("%s: %v", statement, err)
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
