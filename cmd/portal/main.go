package main

import (
	"context"

	bookingshandler "github.com/PaingThuTa/booking-system-intern/internal/bookings/handler"
	bookingsrepo "github.com/PaingThuTa/booking-system-intern/internal/bookings/repository"
	bookingsservice "github.com/PaingThuTa/booking-system-intern/internal/bookings/service"
	bookingsvalidator "github.com/PaingThuTa/booking-system-intern/internal/bookings/validator"
	dashboardhandler "github.com/PaingThuTa/booking-system-intern/internal/dashboard/handler"
	dashboardservice "github.com/PaingThuTa/booking-system-intern/internal/dashboard/service"
	eventshandler "github.com/PaingThuTa/booking-system-intern/internal/events/handler"
	timeblockshandler "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/handler"
	timeblocksrepo "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/repository"
	timeblocksservice "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/service"
	timeblocksvalidator "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/validator"
	usershandler "github.com/PaingThuTa/booking-system-intern/internal/users/handler"
	usersrepo "github.com/PaingThuTa/booking-system-intern/internal/users/repository"
	usersservice "github.com/PaingThuTa/booking-system-intern/internal/users/service"
	usersvalidator "github.com/PaingThuTa/booking-system-intern/internal/users/validator"
	"github.com/PaingThuTa/booking-system-intern/pkg/app"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/contracts"
	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	mongodb "github.com/PaingThuTa/booking-system-intern/pkg/db/mongo"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/postgres"
	kafka_config "github.com/PaingThuTa/booking-system-intern/pkg/kafka/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/middleware"
	"github.com/PaingThuTa/booking-system-intern/pkg/notify"
)

const ServiceName = "portal"

type storeTx interface {
	db.TransactionManager
	db.Pinger
}

type stores struct {
	users    usersrepo.UserRepository
	blocks   timeblocksrepo.TimeBlockRepository
	bookings bookingsrepo.BookingRepository
	tx       storeTx
}

type events struct {
	hub       *notify.Hub
	publisher notify.Publisher
	broker    notify.Broker
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting intern interview portal")

	if cfg.NotifyDriver == config.NotifyRedis || cfg.IdempotencyDriver == config.IdempotencyRedis {
		cfg.SetRedis()
	}

	st := initStores(cfg)
	ev := initEvents(cfg)
	notifier := notify.NewAsyncNotifier(ev.publisher, cfg.Log, cfg.NotifyTimeout)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	serverApp := app.NewApplication(cfg, st.tx, tokens, initIdempotencyStore(cfg))
	serverApp.SetApp(initHandlers(cfg, st, ev.hub, notifier, tokens)...)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	if ev.broker != nil {
		go notify.RunRelay(relayCtx, ev.broker, ev.hub, cfg.Log)
		cfg.Log.Info("Event relay started", "driver", cfg.NotifyDriver)
	}

	// ending the relay and the hub closes every open event stream
	serverApp.OnDrain(func() {
		stopRelay()
		_ = ev.hub.Close()
	})
	// flushes in-flight publishes, then closes the publisher
	serverApp.OnShutdown("notifier", notifier.Close)

	serverApp.Run()
}

func initStores(cfg *config.Config) *stores {
	var st *stores
	switch cfg.StoreDriver {
	case config.StoreMongo:
		cfg.SetMongo()
		st = &stores{
			users:    usersrepo.NewMongoUserRepository(cfg),
			blocks:   timeblocksrepo.NewMongoTimeBlockRepository(cfg),
			bookings: bookingsrepo.NewMongoBookingRepository(cfg),
		}
		st.tx = asStoreTx(cfg, mongodb.NewTransactionManager(cfg.Client.Mongo))

	case config.StorePostgres:
		cfg.SetPostgres()
		pool := cfg.Client.Postgres
		st = &stores{
			users:    usersrepo.NewPostgresUserRepository(pool),
			blocks:   timeblocksrepo.NewPostgresTimeBlockRepository(pool),
			bookings: bookingsrepo.NewPostgresBookingRepository(pool),
		}
		st.tx = asStoreTx(cfg, postgres.NewTransactionManager(pool))

	default:
		store := memory.NewStore()
		st = &stores{
			users:    usersrepo.NewMemoryUserRepository(store),
			blocks:   timeblocksrepo.NewMemoryTimeBlockRepository(store),
			bookings: bookingsrepo.NewMemoryBookingRepository(store),
			tx:       store,
		}
		cfg.Log.Warn("Using the in-memory store; data is lost on restart")
	}

	cfg.Log.Info("Stores initialized", "driver", cfg.StoreDriver)
	return st
}

func asStoreTx(cfg *config.Config, tx db.TransactionManager) storeTx {
	st, ok := tx.(storeTx)
	if !ok {
		cfg.Log.Fatal("Transaction manager cannot report store health", "driver", cfg.StoreDriver)
	}
	return st
}

func initEvents(cfg *config.Config) *events {
	hub := notify.NewHub()
	ev := &events{hub: hub}

	switch cfg.NotifyDriver {
	case config.NotifyKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)
		broker, err := notify.NewKafkaBroker(kafkaCfg, cfg.Log, ServiceName)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka broker", "error", err)
		}
		ev.publisher, ev.broker = broker, broker

	case config.NotifyRedis:
		broker := notify.NewRedisBroker(cfg.Client.Redis, cfg.RedisEventsChannel, cfg.Log)
		ev.publisher, ev.broker = broker, broker

	case config.NotifyAMQP:
		broker, err := notify.NewAMQPBroker(cfg.AMQPURL, cfg.AMQPExchange, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to connect to RabbitMQ", "error", err)
		}
		ev.publisher, ev.broker = broker, broker

	case config.NotifyNone:
		ev.publisher = notify.Discard()

	default:
		ev.publisher = hub
	}

	cfg.Log.Info("Change notifications configured", "driver", cfg.NotifyDriver)
	return ev
}

func initIdempotencyStore(cfg *config.Config) middleware.IdempotencyStore {
	if cfg.IdempotencyDriver == config.IdempotencyRedis {
		cfg.Log.Info("Idempotency keys stored in Redis", "ttl", cfg.IdempotencyTTL)
		return middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL)
	}
	return middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
}

func initHandlers(
	cfg *config.Config,
	st *stores,
	hub *notify.Hub,
	notifier notify.Notifier,
	tokens *auth.TokenIssuer,
) []contracts.Handler {
	details := bookingsservice.NewDetailsLoader(st.blocks, st.users)

	userService := usersservice.NewUserService(
		st.users,
		st.tx,
		usersvalidator.NewUserValidator(cfg.Log),
		auth.NewRoleResolver(cfg.AdminEmails),
		tokens,
		cfg,
	)
	timeBlockService := timeblocksservice.NewTimeBlockService(
		st.blocks,
		st.bookings,
		st.users,
		st.tx,
		timeblocksvalidator.NewTimeBlockValidator(cfg.Log),
		notifier,
		cfg,
	)
	bookingService := bookingsservice.NewBookingService(
		st.bookings,
		st.blocks,
		details,
		st.tx,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		notifier,
		cfg,
	)
	dashboardService := dashboardservice.NewDashboardService(
		st.blocks,
		st.bookings,
		details,
		cfg,
	)

	cfg.Log.Info("Services initialized", "admin_count", len(cfg.AdminEmails))
	return []contracts.Handler{
		usershandler.NewUserHandler(userService, cfg.Log),
		timeblockshandler.NewTimeBlockHandler(timeBlockService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		dashboardhandler.NewDashboardHandler(dashboardService, cfg.Log),
		eventshandler.NewStreamHandler(hub, cfg.Log),
	}
}
