package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir   string
	OutputDir string
	DBPath    string

	SourceURL            string
	LinkSelector         string
	HTTPTimeoutMs        int
	DownloadRateLimitRPS int

	ExportFormat string
	ExportPath   string

	MapMinSeverity float64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DataDir:   getEnv("DATA_DIR", filepath.Join(cwd, "accident_data")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),

		SourceURL:            getEnv("SOURCE_URL", "https://i2ds.org/datos-abiertos/"),
		LinkSelector:         getEnv("LINK_SELECTOR", "a"),
		HTTPTimeoutMs:        getEnvInt("HTTP_TIMEOUT_MS", 30000),
		DownloadRateLimitRPS: getEnvInt("DOWNLOAD_RATE_LIMIT_RPS", 2),

		ExportFormat: getEnv("EXPORT_FORMAT", "parquet"),
		ExportPath:   getEnv("EXPORT_PATH", filepath.Join(cwd, "out", "cleaned_crash_data.parquet")),

		MapMinSeverity: getEnvFloat("MAP_MIN_SEVERITY", 1),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
