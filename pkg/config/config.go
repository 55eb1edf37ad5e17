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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	RedPacket    RedPacketConfig
	Assistants   AssistantsConfig
	Cron         CronConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.RedPacket.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHATWAVE_APP_ENV" required:"true"`
	Port         string `envconfig:"CHATWAVE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHATWAVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHATWAVE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHATWAVE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CHATWAVE_DB_DSN"`
	Driver string `envconfig:"CHATWAVE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHATWAVE_DB_HOST"`
	LegacyPort     int    `envconfig:"CHATWAVE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHATWAVE_DB_USER"`
	LegacyPassword string `envconfig:"CHATWAVE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHATWAVE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHATWAVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHATWAVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHATWAVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHATWAVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHATWAVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CHATWAVE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHATWAVE_REDIS_ADDR"`
	Password     string        `envconfig:"CHATWAVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHATWAVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHATWAVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHATWAVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHATWAVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHATWAVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHATWAVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CHATWAVE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHATWAVE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CHATWAVE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHATWAVE_AUTO_MIGRATE" default:"false"`
}

// RedPacketConfig holds the timing knobs of the red packet engine.
type RedPacketConfig struct {
	Lifetime       time.Duration `envconfig:"CHATWAVE_RED_PACKET_LIFETIME" default:"24h"`
	LockTTL        time.Duration `envconfig:"CHATWAVE_RED_PACKET_LOCK_TTL" default:"10s"`
	ClaimWait      time.Duration `envconfig:"CHATWAVE_RED_PACKET_CLAIM_WAIT" default:"5s"`
	BackoffBase    time.Duration `envconfig:"CHATWAVE_RED_PACKET_BACKOFF_BASE" default:"5ms"`
	BackoffCap     time.Duration `envconfig:"CHATWAVE_RED_PACKET_BACKOFF_CAP" default:"200ms"`
	DefaultRemark  string        `envconfig:"CHATWAVE_RED_PACKET_DEFAULT_REMARK" default:"恭喜发财，大吉大利"`
	RefundBatch    int           `envconfig:"CHATWAVE_RED_PACKET_REFUND_BATCH" default:"100"`
	MaxRemarkRunes int           `envconfig:"CHATWAVE_RED_PACKET_MAX_REMARK" default:"64"`
}

func (r RedPacketConfig) validate() error {
	if r.LockTTL <= r.ClaimWait {
		return fmt.Errorf("%s must exceed %s", EnvRedPacketLockTTL, EnvRedPacketClaimWait)
	}
	if r.Lifetime <= 0 {
		return fmt.Errorf("%s must be positive", EnvRedPacketLifetime)
	}
	return nil
}

// AssistantsConfig lists the user ids that belong to AI assistants.
type AssistantsConfig struct {
	UserIDs []int64 `envconfig:"CHATWAVE_ASSISTANT_USER_IDS" default:"997,998,999"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CHATWAVE_CRON_INTERVAL" default:"1h"`
}

// HTTPConfig covers the API surface: allowed origins and the per-user claim throttle.
// A zero ClaimRateLimit disables the throttle.
type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"CHATWAVE_CORS_ORIGINS" default:"http://localhost:3000"`
	ClaimRateLimit  int           `envconfig:"CHATWAVE_CLAIM_RATE_LIMIT" default:"30"`
	ClaimRateWindow time.Duration `envconfig:"CHATWAVE_CLAIM_RATE_WINDOW" default:"10s"`
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
