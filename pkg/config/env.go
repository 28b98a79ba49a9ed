package config

const (
	EnvAppEnv    = "APP_ENV"
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresDSN      = "POSTGRES_DSN"
	EnvPostgresMaxConns = "POSTGRES_MAX_CONNS"

	EnvRedisAddr          = "REDIS_ADDR"
	EnvRedisPassword      = "REDIS_PASSWORD"
	EnvRedisDB            = "REDIS_DB"
	EnvRedisEventsChannel = "REDIS_EVENTS_CHANNEL"

	EnvNotifyDriver  = "NOTIFY_DRIVER"
	EnvNotifyTimeout = "NOTIFY_TIMEOUT"

	EnvAMQPURL      = "AMQP_URL"
	EnvAMQPExchange = "AMQP_EXCHANGE"

	EnvIdempotencyDriver = "IDEMPOTENCY_DRIVER"
	EnvIdempotencyTTL    = "IDEMPOTENCY_TTL"

	EnvJWTSecret       = "JWT_SECRET"
	EnvTokenTTL        = "TOKEN_TTL"
	EnvAdminEmails     = "ADMIN_EMAILS"
	EnvDisplayTimeZone = "DISPLAY_TIME_ZONE"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
