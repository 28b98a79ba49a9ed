package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/client"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string
	Port   string

	StoreDriver string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN      string
	PostgresMaxConns int

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisEventsChannel string

	NotifyDriver  string
	NotifyTimeout time.Duration

	AMQPURL      string
	AMQPExchange string

	IdempotencyDriver string
	IdempotencyTTL    time.Duration

	JWTSecret       string
	TokenTTL        time.Duration
	AdminEmails     []string
	DisplayTimeZone string
	Location        *time.Location

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads configuration from the environment, after an optional .env file.
// Invalid configuration is fatal.
func Load(serviceName string) *Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	format := getEnvStr(EnvLogFormat, DefaultLogFormat)
	cfg := &Config{
		AppEnv: getEnvStr(EnvAppEnv, DefaultAppEnv),
		Port:   getEnvStr(EnvPort, DefaultPort),

		StoreDriver: strings.ToLower(getEnvStr(EnvStoreDriver, DefaultStoreDriver)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresDSN:      getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),
		PostgresMaxConns: getEnvNum(EnvPostgresMaxConns, DefaultPostgresMaxConns),

		RedisAddr:          getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:      getEnvStr(EnvRedisPassword, ""),
		RedisDB:            getEnvNum(EnvRedisDB, DefaultRedisDB),
		RedisEventsChannel: getEnvStr(EnvRedisEventsChannel, DefaultRedisEventsChannel),

		NotifyDriver:  strings.ToLower(getEnvStr(EnvNotifyDriver, DefaultNotifyDriver)),
		NotifyTimeout: getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),

		AMQPURL:      getEnvStr(EnvAMQPURL, DefaultAMQPURL),
		AMQPExchange: getEnvStr(EnvAMQPExchange, DefaultAMQPExchange),

		IdempotencyDriver: strings.ToLower(getEnvStr(EnvIdempotencyDriver, DefaultIdempotencyDriver)),
		IdempotencyTTL:    getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		JWTSecret:       getEnvStr(EnvJWTSecret, ""),
		TokenTTL:        getEnvDuration(EnvTokenTTL, DefaultTokenTTL),
		AdminEmails:     getEnvList(EnvAdminEmails),
		DisplayTimeZone: getEnvStr(EnvDisplayTimeZone, DefaultDisplayTimeZone),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    format,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.PostgresMaxConns, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// Validate checks every setting and reports all problems at once.
// It also resolves DisplayTimeZone into Location.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	case StorePostgres:
		if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresDSN) {
			errors = append(errors, fmt.Sprintf("PostgresDSN must start with 'postgres://' or 'postgresql://', got: %s", redactURI(cfg.PostgresDSN)))
		}
		if cfg.PostgresMaxConns <= 0 {
			errors = append(errors, fmt.Sprintf("PostgresMaxConns must be positive, got: %d", cfg.PostgresMaxConns))
		}
	case StoreMemory:
		if cfg.AppEnv == AppEnvProduction {
			errors = append(errors, "StoreDriver 'memory' is not allowed in production")
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of mongo, postgres, memory, got: %s", cfg.StoreDriver))
	}

	switch cfg.NotifyDriver {
	case NotifyLocal, NotifyKafka, NotifyNone:
	case NotifyRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr is required when NotifyDriver is 'redis'")
		}
		if cfg.RedisEventsChannel == "" {
			errors = append(errors, "RedisEventsChannel cannot be empty")
		}
	case NotifyAMQP:
		if !strings.HasPrefix(cfg.AMQPURL, "amqp://") && !strings.HasPrefix(cfg.AMQPURL, "amqps://") {
			errors = append(errors, fmt.Sprintf("AMQPURL must start with 'amqp://' or 'amqps://', got: %s", redactURI(cfg.AMQPURL)))
		}
		if cfg.AMQPExchange == "" {
			errors = append(errors, "AMQPExchange cannot be empty")
		}
	default:
		errors = append(errors, fmt.Sprintf("NotifyDriver must be one of local, kafka, redis, amqp, none, got: %s", cfg.NotifyDriver))
	}

	switch cfg.IdempotencyDriver {
	case IdempotencyMemory:
	case IdempotencyRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr is required when IdempotencyDriver is 'redis'")
		}
	default:
		errors = append(errors, fmt.Sprintf("IdempotencyDriver must be one of memory, redis, got: %s", cfg.IdempotencyDriver))
	}

	if len(cfg.JWTSecret) < minJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least %d characters", minJWTSecretLength))
	}
	if cfg.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("TokenTTL must be positive, got: %s", cfg.TokenTTL))
	}
	for _, email := range cfg.AdminEmails {
		if !strings.Contains(email, "@") {
			errors = append(errors, fmt.Sprintf("AdminEmails contains an invalid address: %s", email))
		}
	}

	loc, err := time.LoadLocation(cfg.DisplayTimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("DisplayTimeZone must be an IANA time zone, got: %s", cfg.DisplayTimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.NotifyTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyTimeout must be positive, got: %s", cfg.NotifyTimeout))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"app_env", cfg.AppEnv,
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn", redactURI(cfg.PostgresDSN),
		"postgres_max_conns", cfg.PostgresMaxConns,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"redis_events_channel", cfg.RedisEventsChannel,
		"notify_driver", cfg.NotifyDriver,
		"notify_timeout", cfg.NotifyTimeout,
		"amqp_url", redactURI(cfg.AMQPURL),
		"amqp_exchange", cfg.AMQPExchange,
		"idempotency_driver", cfg.IdempotencyDriver,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"jwt_secret_set", cfg.JWTSecret != "",
		"token_ttl", cfg.TokenTTL,
		"admin_email_count", len(cfg.AdminEmails),
		"display_time_zone", cfg.DisplayTimeZone,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

var credentialRegex = regexp.MustCompile(`^([a-z+]+://)[^:@/]+(:[^@/]*)?@`)

func redactURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, trimming and lower-casing each item.
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
