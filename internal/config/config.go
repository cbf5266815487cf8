package config

import (
	"os"

	"hubgate/internal/models"
)

// Load returns the server configuration from environment variables
func Load() models.Config {
	return models.Config{
		Port:        getEnv("PORT", "8050"),
		DBPath:      getEnv("DB_PATH", "hubgate.db"),
		AdminUser:   getEnv("ADMIN_USER", "admin"),
		AdminPass:   getEnv("ADMIN_PASS", ""),
		AuthEnabled: getEnv("AUTH_ENABLED", "true") == "true",
		ChromePath:  getEnv("CHROME_PATH", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
