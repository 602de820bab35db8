package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "PRINTDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "PRINTDESK_APP_ENV"
	EnvPort       = "PRINTDESK_APP_PORT"
	EnvDBDSN      = "PRINTDESK_DB_DSN"
	EnvDBHost     = "PRINTDESK_DB_HOST"
	EnvDBUser     = "PRINTDESK_DB_USER"
	EnvDBName     = "PRINTDESK_DB_NAME"
	EnvRedisURL   = "PRINTDESK_REDIS_URL"
	EnvJWTSecret  = "PRINTDESK_JWT_SECRET"
	EnvJWTIssuer  = "PRINTDESK_JWT_ISSUER"
	EnvJWTExpMins = "PRINTDESK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
