package config

const (
	EnvPrefix = "CHATWAVE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv       = "CHATWAVE_APP_ENV"
	EnvPort         = "CHATWAVE_APP_PORT"
	EnvDBDSN        = "CHATWAVE_DB_DSN"
	EnvDBDriver     = "CHATWAVE_DB_DRIVER"
	EnvDBHost       = "CHATWAVE_DB_HOST"
	EnvDBUser       = "CHATWAVE_DB_USER"
	EnvDBName       = "CHATWAVE_DB_NAME"
	EnvRedisURL     = "CHATWAVE_REDIS_URL"
	EnvJWTSecret    = "CHATWAVE_JWT_SECRET"
	EnvJWTIssuer    = "CHATWAVE_JWT_ISSUER"
	EnvJWTExpMins   = "CHATWAVE_JWT_EXPIRATION_MINUTES"
	EnvAssistants   = "CHATWAVE_ASSISTANT_USER_IDS"
	EnvCronInterval = "CHATWAVE_CRON_INTERVAL"
	EnvCORSOrigins  = "CHATWAVE_CORS_ORIGINS"
	EnvClaimLimit   = "CHATWAVE_CLAIM_RATE_LIMIT"

	EnvRedPacketLifetime  = "CHATWAVE_RED_PACKET_LIFETIME"
	EnvRedPacketLockTTL   = "CHATWAVE_RED_PACKET_LOCK_TTL"
	EnvRedPacketClaimWait = "CHATWAVE_RED_PACKET_CLAIM_WAIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
