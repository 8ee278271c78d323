package config

import (
	"log"
	"os"
)

type Config struct {
	HTTPPort      string
	DatabaseDSN   string
	JWTSecret     string
	PredictionURL string // Base URL of the external sales-prediction service
	CORSOrigins   string
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "3000"),
		DatabaseDSN:   getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=storesight port=5432 sslmode=disable"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		PredictionURL: getEnv("PREDICTION_URL", "http://model:8000"),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment variable is not set.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=storesight port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN is using the default value, set your own Postgres connection string for production.")
	}
	if cfg.CORSOrigins == "*" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS allows any origin, restrict it for production.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
