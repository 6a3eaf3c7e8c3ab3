// file: internal/config/config.go
// version: 1.0.0
// guid: 3a5b7c9d-1e2f-4a3b-8c5d-7e9f1a2b3c4d

package config

import (
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ProvidersDir    string
	DatabasePath    string
	DatabaseType    string // "pebble" (default) or "sqlite"
	DataDir         string // scratch space for provider catalog downloads
	WatchProviders  bool   // reload provider configs on change
	RateLimitPerMin int    // per-IP request budget; 0 disables limiting
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	viper.SetDefault("database_type", "pebble")
	viper.SetDefault("providers_dir", "providers")
	viper.SetDefault("data_dir", "data")
	viper.SetDefault("watch_providers", false)
	viper.SetDefault("rate_limit_per_min", 0)

	AppConfig = Config{
		ProvidersDir:    viper.GetString("providers_dir"),
		DatabasePath:    viper.GetString("database_path"),
		DatabaseType:    viper.GetString("database_type"),
		DataDir:         viper.GetString("data_dir"),
		WatchProviders:  viper.GetBool("watch_providers"),
		RateLimitPerMin: viper.GetInt("rate_limit_per_min"),
	}

	// Normalize database type
	if AppConfig.DatabaseType == "sqlite3" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "pebble"
	}
	if AppConfig.DatabasePath == "" {
		AppConfig.DatabasePath = "data/cache.pebble"
	}
}
