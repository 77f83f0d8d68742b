package config

// EnvPrefix is empty because every field names its full variable.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"

	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBDriver   = "STOREFRONT_DB_DRIVER"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvDBSSLMode  = "STOREFRONT_DB_SSLMODE"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvStorageBackend = "STOREFRONT_STORAGE_BACKEND"
	EnvStorageDir     = "STOREFRONT_STORAGE_DIR"
	EnvStorageChannel = "STOREFRONT_STORAGE_CHANNEL"

	EnvSessionSecret = "STOREFRONT_SESSION_SECRET"
	EnvSessionName   = "STOREFRONT_SESSION_NAME"
	EnvSessionSecure = "STOREFRONT_SESSION_SECURE"

	EnvCORSOrigins = "STOREFRONT_CORS_ALLOWED_ORIGINS"

	EnvInventoryAdminToken = "STOREFRONT_INVENTORY_ADMIN_TOKEN"

	EnvCheckoutURL     = "STOREFRONT_CHECKOUT_URL"
	EnvCheckoutTimeout = "STOREFRONT_CHECKOUT_TIMEOUT"
	EnvCheckoutStock   = "STOREFRONT_CHECKOUT_VERIFY_STOCK"

	EnvAutoMigrate = "STOREFRONT_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendFile   = "file"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
