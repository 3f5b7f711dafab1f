package config

const EnvPrefix = "BOOKSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	ServiceCatalog = "catalog"
	ServiceCart    = "cart"

	DefaultCatalogPort = "5001"
	DefaultCartPort    = "5002"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "BOOKSTORE_APP_ENV"
	EnvPort         = "BOOKSTORE_APP_PORT"
	EnvServiceKind  = "BOOKSTORE_SERVICE_KIND"
	EnvDBDSN        = "BOOKSTORE_DB_DSN"
	EnvCatalogDBDSN = "BOOKSTORE_CATALOG_DB_DSN"
	EnvCartDBDSN    = "BOOKSTORE_CART_DB_DSN"
	EnvDBDriver     = "BOOKSTORE_DB_DRIVER"
	EnvRedisURL     = "BOOKSTORE_REDIS_URL"
	EnvAdminSecret  = "BOOKSTORE_ADMIN_SECRET"
	EnvCORSOrigins  = "BOOKSTORE_CORS_ALLOWED_ORIGINS"

	// Names read by the original node services.
	EnvLegacyCatalogDSN = "DATABASE_URL"
	EnvLegacyCartDSN    = "CART_DATABASE_URL"
)
