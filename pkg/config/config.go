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
	JWT          JWTConfig
	Session      SessionConfig
	CartSync     CartSyncConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DEMOFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"DEMOFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DEMOFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DEMOFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DEMOFORGE_DB_DSN"`
	Driver string `envconfig:"DEMOFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DEMOFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"DEMOFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEMOFORGE_DB_USER"`
	LegacyPassword string `envconfig:"DEMOFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEMOFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEMOFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEMOFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEMOFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEMOFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEMOFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEMOFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DEMOFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"DEMOFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEMOFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEMOFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEMOFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEMOFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEMOFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEMOFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"DEMOFORGE_JWT_SECRET"`
	Issuer string `envconfig:"DEMOFORGE_JWT_ISSUER" default:"demoforge"`
}

// SessionConfig controls the anonymous identity cookie shared across subdomains.
type SessionConfig struct {
	CookieName   string `envconfig:"DEMOFORGE_SESSION_COOKIE_NAME" default:"df_session_id"`
	CookieDomain string `envconfig:"DEMOFORGE_SESSION_COOKIE_DOMAIN"`
	CookieTTL    int    `envconfig:"DEMOFORGE_SESSION_COOKIE_TTL_DAYS" default:"365"`
}

// TTL returns the cookie lifetime as a duration.
func (s SessionConfig) TTL() time.Duration {
	if s.CookieTTL <= 0 {
		return 0
	}
	return time.Duration(s.CookieTTL) * 24 * time.Hour
}

type CartSyncConfig struct {
	FeedChannelPrefix string `envconfig:"DEMOFORGE_CARTSYNC_FEED_PREFIX" default:"cartfeed"`
}

type RateLimitConfig struct {
	QuoteWindow     time.Duration `envconfig:"DEMOFORGE_RATE_LIMIT_QUOTE_WINDOW" default:"1m"`
	QuoteEmailLimit int           `envconfig:"DEMOFORGE_RATE_LIMIT_QUOTE_EMAIL_LIMIT" default:"3"`
	QuoteIPLimit    int           `envconfig:"DEMOFORGE_RATE_LIMIT_QUOTE_IP_LIMIT" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DEMOFORGE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEMOFORGE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DEMOFORGE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DEMOFORGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DEMOFORGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LeadTopic string `envconfig:"DEMOFORGE_PUBSUB_LEAD_TOPIC" default:"df-lead-events"`
}

func (db *DBConfig) ensureDSN() error {
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
