package config

import (
	"os"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from the process environment. A .env file
// in the working directory is loaded first, if present; real environment
// variables win over it.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv("MAILDEPOT_HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("MAILDEPOT_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("MAILDEPOT_STORAGE_ROOT"); ok {
		config.StorageRoot = v
	}
	if v, ok := os.LookupEnv("MAILDEPOT_SERVER_NAME"); ok {
		config.ServerName = v
	}
}
