package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDataDir      = "JOBAGENT_DATA_DIR"
	EnvPort         = "JOBAGENT_PORT"
	EnvNATSURL      = "JOBAGENT_NATS_URL"
	EnvReportPath   = "JOBAGENT_REPORT_PATH"
	EnvIMAPPassword = "JOBAGENT_IMAP_PASSWORD"
)

// LoadDotEnv loads .env files into the process environment. A missing file
// is not an error; variables already set win.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			log.Printf("[config] dotenv %s: %v", p, err)
		}
	}
}

// ApplyEnv overrides cfg with JOBAGENT_* variables.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		} else {
			log.Printf("[config] ignoring %s=%q: %v", EnvPort, v, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvNATSURL)); v != "" {
		cfg.NATS.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvReportPath)); v != "" {
		cfg.Report.Path = v
	}
	if v := os.Getenv(EnvIMAPPassword); v != "" {
		cfg.IMAPPassword = v
	}
}
