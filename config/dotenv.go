package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotenv loads PRISM_* variables from a .env file if one is present.
// Already exported variables win. PRISM_ENV_FILE may name the file(s),
// comma separated; otherwise ./.env and then <state dir>/.env are tried.
func LoadDotenv() {
	if v := strings.TrimSpace(os.Getenv("PRISM_ENV_FILE")); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		_ = godotenv.Load(parts...)
		return
	}

	candidates := []string{".env"}
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}
