package constants

import "time"

// viper keys
const (
	ViperAPIKey      = "api_key"
	ViperCachePath   = "cache_path"
	ViperBaseURL     = "base_url"
	ViperTimeout     = "timeout"
	ViperSecretKey   = "admin_secret"
	ViperLogLevel    = "log_level"
	ViperEnvPrefix   = "CANCENSUS"
	ViperDatabaseDSN = "database_dsn"
)

const (
	DefaultBaseURL = "https://censusmapper.ca/api/v1/"
	DefaultTimeout = 30 * time.Second

	AppDirName     = "cancensus"
	KeyStoreFile   = "config.json"
	CacheFileExt   = ".json"
	CRSGeographic  = "EPSG:4326"
	HeaderAuthType = "Bearer"
)

const (
	CookieKeySecretToken = "admin_token"
	CtxKeyRequestID      = "request_id"
)
