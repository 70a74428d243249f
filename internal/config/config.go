package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputPath      string
	InputDelimiter byte
	InputQuoting   bool
	InputHasHeader bool

	DBDriver string
	DBDSN    string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional publishing of normalized records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	delimiter, err := parseDelimiter(sharedcfg.EnvOrDefault("INPUT_DELIMITER", ","))
	if err != nil {
		return nil, err
	}
	quoting, err := parseBool("INPUT_QUOTING", false)
	if err != nil {
		return nil, err
	}
	hasHeader, err := parseBool("INPUT_HAS_HEADER", true)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if os.Getenv("KAFKA_ENABLED") != "" {
		if kafkaEnabled, err = parseBool("KAFKA_ENABLED", kafkaEnabled); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", "res/9.world_pm25_pm10.csv"),
		InputDelimiter:  delimiter,
		InputQuoting:    quoting,
		InputHasHeader:  hasHeader,
		DBDriver:        strings.ToLower(sharedcfg.EnvOrDefault("DB_DRIVER", "sqlite")),
		DBDSN:           sharedcfg.EnvOrDefault("DB_DSN", "air_quality.db"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "air-quality-records"),
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be sqlite or postgres", cfg.DBDriver)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseDelimiter accepts a single byte, or "\t" / "tab" for tab-separated input.
func parseDelimiter(s string) (byte, error) {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid INPUT_DELIMITER %q: must be a single character", s)
	}
	return s[0], nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, s)
	}
	return b, nil
}
