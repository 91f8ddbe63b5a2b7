// Package config loads the service configuration from a YAML file, with
// secrets and deployment specifics overridable through the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gartstein/shopper/internal/shopper/db"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable holding the config file path.
const PathEnv = "SHOPPER_CONFIG"

// DefaultPath is used when PathEnv is unset.
const DefaultPath = "internal/shopper/config/config.yaml"

// Config struct for YAML configuration
type Config struct {
	GRPCPort      int      `yaml:"GRPC_PORT"`
	HTTPPort      int      `yaml:"HTTP_PORT"`
	DBDriver      string   `yaml:"DB_DRIVER"`
	DBHost        string   `yaml:"DB_HOST"`
	DBPort        int      `yaml:"DB_PORT"`
	DBUser        string   `yaml:"DB_USER"`
	DBPassword    string   `yaml:"DB_PASSWORD"`
	DBName        string   `yaml:"DB_NAME"`
	DBSSLMode     string   `yaml:"DB_SSLMODE"`
	DBPath        string   `yaml:"DB_PATH"`
	KafkaBrokers  []string `yaml:"KAFKA_BROKERS"`
	Topic         string   `yaml:"TOPIC"`
	EventsEnabled bool     `yaml:"EVENTS_ENABLED"`
	JWTSecret     string   `yaml:"JWT_SECRET"`
	APIKey        string   `yaml:"API_KEY"`
}

// Load reads the YAML file at path, then applies environment overrides. A
// .env file in the working directory is loaded first when present; it
// never overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		path = DefaultPath
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DB_DRIVER":   &c.DBDriver,
		"DB_HOST":     &c.DBHost,
		"DB_USER":     &c.DBUser,
		"DB_PASSWORD": &c.DBPassword,
		"DB_NAME":     &c.DBName,
		"DB_PATH":     &c.DBPath,
		"TOPIC":       &c.Topic,
		"JWT_SECRET":  &c.JWTSecret,
		"API_KEY":     &c.APIKey,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GRPC_PORT": &c.GRPCPort,
		"HTTP_PORT": &c.HTTPPort,
		"DB_PORT":   &c.DBPort,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("EVENTS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EVENTS_ENABLED %q: %w", v, err)
		}
		c.EventsEnabled = enabled
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.GRPCPort <= 0 || c.HTTPPort <= 0 {
		return fmt.Errorf("GRPC_PORT and HTTP_PORT must be positive")
	}
	switch c.DBDriver {
	case db.DriverPostgres:
		if c.DBHost == "" || c.DBPort <= 0 || c.DBName == "" {
			return fmt.Errorf("postgres requires DB_HOST, DB_PORT and DB_NAME")
		}
	case db.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.DBDriver)
	}
	if c.EventsEnabled && (len(c.KafkaBrokers) == 0 || c.Topic == "") {
		return fmt.Errorf("events require KAFKA_BROKERS and TOPIC")
	}
	if c.JWTSecret == "" && c.APIKey == "" {
		return fmt.Errorf("at least one of JWT_SECRET and API_KEY is required")
	}
	return nil
}

// Database returns the storage settings.
func (c *Config) Database() *db.Config {
	return &db.Config{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}
