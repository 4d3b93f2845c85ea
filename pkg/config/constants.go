package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "PAINTDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageBackendMemory = "memory"
	StorageBackendSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv          = "PAINTDESK_APP_ENV"
	EnvPort            = "PAINTDESK_APP_PORT"
	EnvStorageBackend  = "PAINTDESK_STORAGE_BACKEND"
	EnvDBDSN           = "PAINTDESK_DB_DSN"
	EnvDBDriver        = "PAINTDESK_DB_DRIVER"
	EnvDBHost          = "PAINTDESK_DB_HOST"
	EnvDBUser          = "PAINTDESK_DB_USER"
	EnvDBName          = "PAINTDESK_DB_NAME"
	EnvRedisURL        = "PAINTDESK_REDIS_URL"
	EnvWorkstationName = "PAINTDESK_WORKSTATION_DEFAULT_NAME"
	EnvAllowWaitReject = "PAINTDESK_LIFECYCLE_ALLOW_WAITING_REJECT"
	EnvLocale          = "PAINTDESK_NOTIFICATIONS_LOCALE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
