package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "DEMOFORGE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "DEMOFORGE_APP_ENV"
	EnvPort     = "DEMOFORGE_APP_PORT"
	EnvLogLevel = "DEMOFORGE_LOG_LEVEL"

	EnvDBDSN  = "DEMOFORGE_DB_DSN"
	EnvDBHost = "DEMOFORGE_DB_HOST"
	EnvDBUser = "DEMOFORGE_DB_USER"
	EnvDBName = "DEMOFORGE_DB_NAME"

	EnvRedisURL = "DEMOFORGE_REDIS_URL"

	EnvSessionCookieName   = "DEMOFORGE_SESSION_COOKIE_NAME"
	EnvSessionCookieDomain = "DEMOFORGE_SESSION_COOKIE_DOMAIN"

	EnvGCPProjectID = "DEMOFORGE_GCP_PROJECT_ID"
	EnvLeadTopic    = "DEMOFORGE_PUBSUB_LEAD_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
