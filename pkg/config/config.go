package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Ventify      VentifyConfig
	Checkout     CheckoutConfig
	OrderLog     OrderLogConfig
	Session      SessionConfig
	Catalog      CatalogConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.OrderLog.validate(); err != nil {
		return nil, err
	}
	if cfg.OrderLog.Backend == OrderLogBackendDB || cfg.FeatureFlags.UseSQLite {
		if err := cfg.RequireDatabase(); err != nil {
			return nil, err
		}
	}
	if cfg.OrderLog.Backend == OrderLogBackendRedis && !cfg.Redis.Enabled() {
		return nil, fmt.Errorf("%s=redis requires %s or %s", EnvOrderLogBackend, EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

// RequireDatabase resolves the DSN for tools that always need a database.
func (c *Config) RequireDatabase() error {
	return c.DB.ensureDSN(c.FeatureFlags.UseSQLite)
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	// AllowedOrigins is a comma separated list of browser origins allowed by CORS.
	AllowedOrigins []string `envconfig:"STOREFRONT_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// VentifyConfig keeps the upstream commerce platform credentials server side.
// The env names match the ones the storefront has always used.
type VentifyConfig struct {
	BaseURL      string        `envconfig:"VENTIFY_API_URL" default:"http://localhost:9002"`
	APIKey       string        `envconfig:"VENTIFY_API_KEY"`
	AccountID    string        `envconfig:"VENTIFY_ACCOUNT_ID"`
	ReadTimeout  time.Duration `envconfig:"VENTIFY_READ_TIMEOUT" default:"8s"`
	WriteTimeout time.Duration `envconfig:"VENTIFY_WRITE_TIMEOUT" default:"10s"`
}

// ReadConfigured reports whether public catalog reads can be proxied.
func (v VentifyConfig) ReadConfigured() bool {
	return strings.TrimSpace(v.BaseURL) != "" && strings.TrimSpace(v.AccountID) != ""
}

// WriteConfigured reports whether sale requests and quotes can be proxied.
func (v VentifyConfig) WriteConfigured() bool {
	return v.ReadConfigured() && strings.TrimSpace(v.APIKey) != ""
}

type CheckoutConfig struct {
	FreeShippingThreshold float64       `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD" default:"50"`
	FlatShippingFee       float64       `envconfig:"STOREFRONT_FLAT_SHIPPING_FEE" default:"5.99"`
	RemoteTimeout         time.Duration `envconfig:"STOREFRONT_CHECKOUT_REMOTE_TIMEOUT" default:"10s"`
	WhatsAppNumber        string        `envconfig:"STOREFRONT_WHATSAPP_NUMBER" default:"51917455538"`
	BusinessName          string        `envconfig:"STOREFRONT_BUSINESS_NAME" default:"Arcay3Dlabs"`
	TimeZone              string        `envconfig:"STOREFRONT_TIME_ZONE" default:"America/Lima"`
}

// Location resolves the configured time zone, falling back to UTC.
func (c CheckoutConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(c.TimeZone)); err == nil {
		return loc
	}
	return time.UTC
}

type OrderLogConfig struct {
	Backend    string `envconfig:"STOREFRONT_ORDERLOG_BACKEND" default:"memory"`
	Key        string `envconfig:"STOREFRONT_ORDERLOG_KEY" default:"arcay3dlabs_orders"`
	MaxRecords int    `envconfig:"STOREFRONT_ORDERLOG_MAX_RECORDS" default:"500"`
}

func (o OrderLogConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case OrderLogBackendMemory, OrderLogBackendRedis, OrderLogBackendDB:
	default:
		return fmt.Errorf("%s must be one of memory|redis|db, got %q", EnvOrderLogBackend, o.Backend)
	}
	if strings.TrimSpace(o.Key) == "" {
		return fmt.Errorf("%s is required", EnvOrderLogKey)
	}
	return nil
}

type SessionConfig struct {
	Secret     string        `envconfig:"STOREFRONT_SESSION_SECRET" required:"true"`
	CookieName string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"storefront_session"`
	MaxAge     time.Duration `envconfig:"STOREFRONT_SESSION_MAX_AGE" default:"720h"`
	Secure     bool          `envconfig:"STOREFRONT_SESSION_SECURE" default:"false"`
	CartIdle   time.Duration `envconfig:"STOREFRONT_CART_IDLE_TTL" default:"24h"`
	SweepEvery time.Duration `envconfig:"STOREFRONT_CART_SWEEP_INTERVAL" default:"10m"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"60s"`
}

type RateLimitConfig struct {
	Window     time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit    int           `envconfig:"STOREFRONT_RATE_LIMIT_IP" default:"20"`
	EmailLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_EMAIL" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName  string `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
	MaxUploadMB int    `envconfig:"STOREFRONT_QUOTE_MAX_UPLOAD_MB" default:"5"`
}

// Enabled reports whether quote attachments can be stored.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		db.Driver = DBDriverSQLite
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
