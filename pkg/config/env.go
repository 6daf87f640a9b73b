package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	OrderLogBackendMemory = "memory"
	OrderLogBackendRedis  = "redis"
	OrderLogBackendDB     = "db"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvRedisAddr       = "STOREFRONT_REDIS_ADDR"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
	EnvOrderLogBackend = "STOREFRONT_ORDERLOG_BACKEND"
	EnvOrderLogKey     = "STOREFRONT_ORDERLOG_KEY"
	EnvUseSQLite       = "STOREFRONT_USE_SQLITE"
	EnvVentifyURL      = "VENTIFY_API_URL"
	EnvVentifyKey      = "VENTIFY_API_KEY"
	EnvVentifyAccount  = "VENTIFY_ACCOUNT_ID"
	EnvFreeShipping    = "STOREFRONT_FREE_SHIPPING_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
