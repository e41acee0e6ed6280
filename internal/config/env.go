package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE pairs from the first readable env file.
// Variables already present in the process environment are not overwritten.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
		return
	}
}
