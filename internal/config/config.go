// Package config reads process configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the process needs, with operational defaults.
type Config struct {
	// CronExpression sets the scan cadence. Cadence only; triggers carry
	// no data.
	CronExpression string
	ReportDir      string
	// OpsAddr enables the health/metrics listener when non-empty.
	OpsAddr string

	Window         time.Duration
	CountThreshold int

	Mongo MongoConfig
	Mail  MailConfig
}

// MongoConfig configures the database client pool.
type MongoConfig struct {
	URI            string
	Database       string
	User           string
	Password       string
	MinPoolSize    uint64
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// MailConfig configures the SMTP relay.
type MailConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	Sender    string
	Receivers []string
}

// Load reads configuration from environment variables with defaults. The
// variable names match the deployed environments, including the historical
// RECEVIER spelling.
func Load() Config {
	return Config{
		CronExpression: getEnv("EXEC_EXPRESSION", "0 */2 * * *"),
		ReportDir:      getEnv("REPORT_DIR", "."),
		OpsAddr:        getEnv("OPS_ADDR", ""),
		Window:         getEnvDuration("SCAN_WINDOW", 2*time.Hour),
		CountThreshold: getEnvInt("SCAN_COUNT_THRESHOLD", 3),
		Mongo: MongoConfig{
			URI:            getEnv("DEFAULT_MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("DEFAULT_MONGO_DB_NAME", ""),
			User:           getEnv("DEFAULT_MONGO_USER", ""),
			Password:       getEnv("DEFAULT_MONGO_PASS", ""),
			MinPoolSize:    uint64(getEnvInt("DEFAULT_MONGO_MIN_POOL", 1)),
			MaxPoolSize:    uint64(getEnvInt("DEFAULT_MONGO_MAX_POOL", 10)),
			ConnectTimeout: getEnvDuration("DEFAULT_MONGO_CONN_TIMEOUT", 30*time.Second),
		},
		Mail: MailConfig{
			Host:      getEnv("DEFAULT_MAIL_HOST", ""),
			Port:      getEnvInt("DEFAULT_MAIL_PORT", 587),
			User:      getEnv("DEFAULT_MAIL_USER", ""),
			Password:  getEnv("DEFAULT_MAIL_PASS", ""),
			Sender:    getEnv("DEFAULT_MAIL_SENDER", ""),
			Receivers: splitList(getEnv("DEFAULT_MAIL_RECEVIER", "")),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go duration syntax ("2h") and, for compatibility
// with older deployments, bare integers meaning milliseconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}

// splitList parses a |-separated list, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
