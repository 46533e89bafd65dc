package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; variables already present in the environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads environment variables from .env/.env.local files if they exist.
func loadEnvFiles() {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			slog.Debug("Loaded environment variables", slog.String("path", path))
		}
	}
}
