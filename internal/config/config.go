package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const maxChunkSize = 50

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Downstream services.
	AddressServiceURL   string
	GeographyServiceURL string
	IncidentServiceURL  string
	ServiceTimeout      time.Duration

	// Enrichment.
	EnrichChunkSize    int
	GeographyCacheSize int

	// Lifecycle events.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	serviceTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SERVICE_TIMEOUT", "5s"))
	if err != nil || serviceTimeout <= 0 {
		return nil, errors.New("invalid SERVICE_TIMEOUT")
	}

	chunkSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("ENRICH_CHUNK_SIZE", "5"))
	if err != nil || chunkSize < 1 || chunkSize > maxChunkSize {
		return nil, fmt.Errorf("invalid ENRICH_CHUNK_SIZE: must be between 1 and %d", maxChunkSize)
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("GEOGRAPHY_CACHE_SIZE", "256"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid GEOGRAPHY_CACHE_SIZE")
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		AddressServiceURL:   sharedcfg.EnvOrDefault("ADDRESS_SERVICE_URL", "http://localhost:8081"),
		GeographyServiceURL: sharedcfg.EnvOrDefault("GEOGRAPHY_SERVICE_URL", "http://localhost:8082"),
		IncidentServiceURL:  sharedcfg.EnvOrDefault("INCIDENT_SERVICE_URL", "http://localhost:8083"),
		ServiceTimeout:      serviceTimeout,

		EnrichChunkSize:    chunkSize,
		GeographyCacheSize: cacheSize,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "incident-events"),
		KafkaEnabled: kafkaEnabled,
	}

	for name, raw := range map[string]string{
		"ADDRESS_SERVICE_URL":   cfg.AddressServiceURL,
		"GEOGRAPHY_SERVICE_URL": cfg.GeographyServiceURL,
		"INCIDENT_SERVICE_URL":  cfg.IncidentServiceURL,
	} {
		if err := validateServiceURL(raw); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

func validateServiceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
