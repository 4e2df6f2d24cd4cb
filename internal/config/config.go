package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Shade table configuration.
	ShadeTablePath     string
	ShadeMissingPolicy string

	// OpenET API configuration.
	OpenETToken     string
	OpenETEnabled   bool
	OpenETBaseURL   string
	OpenETTimeout   time.Duration
	OpenETCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDurationEnv("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	openETTimeout, err := parseDurationEnv("OPENET_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	openETToken := os.Getenv("OPENET_TOKEN")
	openETEnabled := openETToken != ""
	if v := os.Getenv("OPENET_ENABLED"); v != "" {
		openETEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "daily-et-samples"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "adjusted-et-records"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "et-shade-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ShadeTablePath:     os.Getenv("SHADE_TABLE_PATH"),
		ShadeMissingPolicy: envOrDefault("SHADE_MISSING_POLICY", "reject"),

		OpenETToken:     openETToken,
		OpenETEnabled:   openETEnabled,
		OpenETBaseURL:   envOrDefault("OPENET_BASE_URL", "https://openet-api.org"),
		OpenETTimeout:   openETTimeout,
		OpenETCacheSize: parseOpenETCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ShadeMissingPolicy != "reject" && cfg.ShadeMissingPolicy != "skip" {
		return nil, fmt.Errorf("invalid SHADE_MISSING_POLICY %q (want \"reject\" or \"skip\")", cfg.ShadeMissingPolicy)
	}
	if cfg.OpenETEnabled && cfg.OpenETToken == "" {
		return nil, errors.New("OPENET_ENABLED is true but OPENET_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q is not positive", key, s)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	s := envOrDefault("BATCH_SIZE", "50")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, errors.New("invalid BATCH_SIZE (want 1-1000)")
	}
	return n, nil
}

func parseOpenETCacheSize() int {
	if s := os.Getenv("OPENET_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 100
}
