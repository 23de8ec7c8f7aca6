package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data portal configuration.
	PedasiBaseURL       string
	PedasiDirectoryPath string
	PedasiPostcodePath  string
	PedasiAPIKey        string
	PedasiTimeout       time.Duration

	// Lookup fan-out. Zero means unbounded / unlimited.
	GeocodeMaxInFlight int
	GeocodeRateLimit   float64

	// Map rendering.
	MapFitPadding   int
	MapH3Resolution int

	// Optional view publication.
	KafkaBrokers []string
	KafkaEnabled bool
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pedasiTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("PEDASI_TIMEOUT", "10s"))
	if err != nil || pedasiTimeout <= 0 {
		return nil, errors.New("invalid PEDASI_TIMEOUT")
	}

	maxInFlight, err := parseInt("GEOCODE_MAX_IN_FLIGHT", 0, 0, 10000)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODE_RATE_LIMIT", "0"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid GEOCODE_RATE_LIMIT")
	}

	fitPadding, err := parseInt("MAP_FIT_PADDING", 0, 0, 1000)
	if err != nil {
		return nil, err
	}

	h3Resolution, err := parseInt("MAP_H3_RESOLUTION", 7, 1, 15)
	if err != nil {
		return nil, err
	}

	var kafkaBrokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PedasiBaseURL:       sharedcfg.EnvOrDefault("PEDASI_BASE_URL", "https://dev.iotobservatory.io"),
		PedasiDirectoryPath: sharedcfg.EnvOrDefault("PEDASI_DIRECTORY_PATH", "/api/datasources/2/data/"),
		PedasiPostcodePath:  sharedcfg.EnvOrDefault("PEDASI_POSTCODE_PATH", "/api/datasources/1/data/"),
		PedasiAPIKey:        os.Getenv("PEDASI_API_KEY"),
		PedasiTimeout:       pedasiTimeout,

		GeocodeMaxInFlight: maxInFlight,
		GeocodeRateLimit:   rateLimit,

		MapFitPadding:   fitPadding,
		MapH3Resolution: h3Resolution,

		KafkaBrokers: kafkaBrokers,
		KafkaEnabled: kafkaEnabled,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "organisation-map-views"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// parseInt reads an integer variable within [lo, hi], returning def when unset.
func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}
