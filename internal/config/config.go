package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// GFS upstream configuration.
	GFSBaseURL      string
	GFSProduct      domain.Product
	GFSDODSBaseURL  string
	FetchTimeout    time.Duration
	MaxRecordBytes  int64
	MaxCatalogBytes int64
	CatalogStrict   bool

	// Retrieval worker configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	product, err := domain.ParseProduct(sharedcfg.EnvOrDefault("GFS_PRODUCT", string(domain.ProductPGRB2)))
	if err != nil {
		return nil, fmt.Errorf("invalid GFS_PRODUCT: %w", err)
	}

	maxRecordBytes, err := parsePositiveInt64("MAX_RECORD_BYTES", 64<<20)
	if err != nil {
		return nil, err
	}
	maxCatalogBytes, err := parsePositiveInt64("MAX_CATALOG_BYTES", 4<<20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GFSBaseURL:      sharedcfg.EnvOrDefault("GFS_BASE_URL", "https://noaa-gfs-bdp-pds.s3.amazonaws.com"),
		GFSProduct:      product,
		GFSDODSBaseURL:  sharedcfg.EnvOrDefault("GFS_DODS_BASE_URL", "http://nomads.ncep.noaa.gov:80"),
		FetchTimeout:    fetchTimeout,
		MaxRecordBytes:  maxRecordBytes,
		MaxCatalogBytes: maxCatalogBytes,
		CatalogStrict:   os.Getenv("CATALOG_STRICT") == "true",

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "gfs-retrieval-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "gfs-records"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "openwx-retriever"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if err := validateBaseURL("GFS_BASE_URL", cfg.GFSBaseURL); err != nil {
		return nil, err
	}
	if err := validateBaseURL("GFS_DODS_BASE_URL", cfg.GFSDODSBaseURL); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// Locator returns the file locator for the configured host and product.
func (c *Config) Locator() domain.Locator {
	return domain.Locator{BaseURL: c.GFSBaseURL, Product: c.GFSProduct}
}

// DatasetLocator returns the OPeNDAP locator for the configured host.
func (c *Config) DatasetLocator() domain.DatasetLocator {
	return domain.DatasetLocator{BaseURL: c.GFSDODSBaseURL}
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", name, raw)
	}
	return nil
}

func parsePositiveInt64(name string, def int64) (int64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
