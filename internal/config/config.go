package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	// DictionaryDir holds the window definition YAML files.
	DictionaryDir string
	// LogDir, when set, mirrors logs into timestamped files there.
	LogDir      string
	CORSOrigins string
	// Debug enables verbose logging and the invalidation endpoints.
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   env,
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DictionaryDir: getEnv("DICTIONARY_DIR", "dictionary"),
		LogDir:        getEnv("LOG_DIR", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		Debug:         getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
