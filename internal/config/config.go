// Package config loads service settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// Postgres holds the PostGIS connection parts.
type Postgres struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslMode"`
}

// DSN renders a lib/pq connection URL.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   p.Database,
	}
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Archive holds the source S3 archive settings.
type Archive struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Product  string `yaml:"product"`
	Secure   bool   `yaml:"secure"`
}

// Kafka holds the optional detection-sink settings. Publishing is enabled
// only when brokers are configured.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Config holds all service settings.
type Config struct {
	Postgres Postgres `yaml:"postgres"`
	Archive  Archive  `yaml:"archive"`
	Kafka    Kafka    `yaml:"kafka"`

	StorageRoot string             `yaml:"storageRoot"`
	Epoch       time.Time          `yaml:"epoch"`
	RunInterval time.Duration      `yaml:"runInterval"`
	Workers     int                `yaml:"workers"`
	Region      domain.BoundingBox `yaml:"region"`
	Timezone    string             `yaml:"timezone"`

	HTTPAddr        string        `yaml:"httpAddr"`
	LogLevel        string        `yaml:"logLevel"`
	LogFormat       string        `yaml:"logFormat"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// defaults covers continental Brazil against the live GOES-16 archive.
func defaults() Config {
	return Config{
		Postgres: Postgres{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			SSLMode: "disable",
		},
		Archive: Archive{
			Endpoint: "s3.amazonaws.com",
			Bucket:   "noaa-goes16",
			Product:  "ABI-L2-FDCF",
			Secure:   true,
		},
		StorageRoot: "data/granules",
		RunInterval: 10 * time.Minute,
		Region:      domain.BoundingBox{MinLat: -55, MaxLat: 13, MinLon: -85, MaxLon: -30},
		Timezone:    "America/Sao_Paulo",

		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (or path, when non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Postgres.Host = envOrDefault("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.User = envOrDefault("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envOrDefault("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Database = envOrDefault("POSTGRES_DB", cfg.Postgres.Database)
	cfg.Postgres.SSLMode = envOrDefault("POSTGRES_SSLMODE", cfg.Postgres.SSLMode)
	if s := os.Getenv("POSTGRES_PORT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("invalid POSTGRES_PORT")
		}
		cfg.Postgres.Port = n
	}

	cfg.Archive.Endpoint = envOrDefault("ARCHIVE_ENDPOINT", cfg.Archive.Endpoint)
	cfg.Archive.Bucket = envOrDefault("ARCHIVE_BUCKET", cfg.Archive.Bucket)
	cfg.Archive.Product = envOrDefault("ARCHIVE_PRODUCT", cfg.Archive.Product)

	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		cfg.Kafka.Brokers = splitBrokers(s)
	}
	cfg.Kafka.Topic = envOrDefault("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.StorageRoot = envOrDefault("STORAGE_ROOT", cfg.StorageRoot)
	cfg.Timezone = envOrDefault("TIMEZONE", cfg.Timezone)
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)

	if s := os.Getenv("EPOCH"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errors.New("invalid EPOCH, want RFC3339")
		}
		cfg.Epoch = t
	}
	if s := os.Getenv("RUN_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.New("invalid RUN_INTERVAL")
		}
		cfg.RunInterval = d
	}
	if s := os.Getenv("WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("invalid WORKERS")
		}
		cfg.Workers = n
	}
	if s := os.Getenv("SHUTDOWN_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.New("invalid SHUTDOWN_TIMEOUT")
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.Postgres.Database == "" {
		return errors.New("postgres database is required")
	}
	if c.StorageRoot == "" {
		return errors.New("storage root is required")
	}
	if c.Archive.Bucket == "" || c.Archive.Product == "" {
		return errors.New("archive bucket and product are required")
	}
	if c.RunInterval <= 0 {
		return errors.New("run interval must be positive")
	}
	if c.Epoch.IsZero() {
		return errors.New("epoch is required")
	}
	if c.Region.MinLat >= c.Region.MaxLat || c.Region.MinLon >= c.Region.MaxLon {
		return errors.New("region bounds are inverted")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka brokers set but topic is empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Call after validation.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PublishingEnabled reports whether a Kafka sink is configured.
func (c *Config) PublishingEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
