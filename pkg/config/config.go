package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Storage       StorageConfig
	DB            DBConfig
	Redis         RedisConfig
	Password      PasswordConfig
	DefaultUser   DefaultUserConfig
	Workstation   WorkstationConfig
	Lifecycle     LifecycleConfig
	Notifications NotificationsConfig
	Cron          CronConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.UsesSQL() {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAINTDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"PAINTDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PAINTDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAINTDESK_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"PAINTDESK_LOG_FORMAT" default:"json"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `envconfig:"PAINTDESK_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the request/notification persistence backend at process start.
type StorageConfig struct {
	Backend string `envconfig:"PAINTDESK_STORAGE_BACKEND" default:"memory"`
}

func (s StorageConfig) UsesSQL() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StorageBackendSQL)
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StorageBackendMemory, StorageBackendSQL:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", EnvStorageBackend, StorageBackendMemory, StorageBackendSQL, s.Backend)
}

type DBConfig struct {
	DSN    string `envconfig:"PAINTDESK_DB_DSN"`
	Driver string `envconfig:"PAINTDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PAINTDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"PAINTDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAINTDESK_DB_USER"`
	LegacyPassword string `envconfig:"PAINTDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAINTDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAINTDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAINTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAINTDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAINTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAINTDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn level; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"PAINTDESK_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional: with neither URL nor address set, idempotency keys are
// not enforced and the cron worker falls back to an in-process lock.
type RedisConfig struct {
	URL          string        `envconfig:"PAINTDESK_REDIS_URL"`
	Address      string        `envconfig:"PAINTDESK_REDIS_ADDR"`
	Password     string        `envconfig:"PAINTDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAINTDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAINTDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAINTDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAINTDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAINTDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAINTDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PAINTDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PAINTDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PAINTDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PAINTDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PAINTDESK_ARGON_KEY_LEN" default:"32"`
}

// DefaultUserConfig describes the single implicit operator seeded at boot.
type DefaultUserConfig struct {
	Username   string `envconfig:"PAINTDESK_DEFAULT_USER_USERNAME" default:"mario.rossi"`
	Password   string `envconfig:"PAINTDESK_DEFAULT_USER_PASSWORD" default:"password123"`
	FullName   string `envconfig:"PAINTDESK_DEFAULT_USER_FULL_NAME" default:"Mario Rossi"`
	Email      string `envconfig:"PAINTDESK_DEFAULT_USER_EMAIL" default:"mario.rossi@azienda.it"`
	Department string `envconfig:"PAINTDESK_DEFAULT_USER_DEPARTMENT" default:"engineering"`
}

// WorkstationConfig provides the origin station used when a draft omits one.
type WorkstationConfig struct {
	DefaultName string `envconfig:"PAINTDESK_WORKSTATION_DEFAULT_NAME" default:"Postazione 1"`
}

type LifecycleConfig struct {
	AllowWaitingReject bool `envconfig:"PAINTDESK_LIFECYCLE_ALLOW_WAITING_REJECT" default:"false"`
	MaxCASAttempts     int  `envconfig:"PAINTDESK_LIFECYCLE_MAX_CAS_ATTEMPTS" default:"3"`
}

type NotificationsConfig struct {
	Locale string `envconfig:"PAINTDESK_NOTIFICATIONS_LOCALE" default:"en"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PAINTDESK_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"PAINTDESK_CRON_LOCK_TTL" default:"4m"`
	// JobTimeout bounds each job within a cycle.
	JobTimeout time.Duration `envconfig:"PAINTDESK_CRON_JOB_TIMEOUT" default:"2m"`
	// NotificationRetentionDays bounds how long read notifications are kept; negative keeps them forever.
	NotificationRetentionDays int `envconfig:"PAINTDESK_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	// MetricsAddr exposes the worker's /metrics when set (e.g. ":9091").
	MetricsAddr string `envconfig:"PAINTDESK_CRON_METRICS_ADDR"`
}

// RateLimitConfig caps request submissions per user. Zero disables the limit;
// the limit is only enforced when Redis is configured.
type RateLimitConfig struct {
	SubmissionsPerMinute int           `envconfig:"PAINTDESK_RATE_LIMIT_SUBMISSIONS_PER_MINUTE" default:"0"`
	IdempotencyTTL       time.Duration `envconfig:"PAINTDESK_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAINTDESK_AUTO_MIGRATE" default:"false"`
}

// RequireDB resolves the database DSN for tools that always talk to SQL,
// whatever the request storage backend is.
func (c *Config) RequireDB() error {
	return c.DB.ensureDSN()
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
