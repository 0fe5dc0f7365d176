package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Keycloak   KeycloakConfig
	Redis      RedisConfig
	Monitoring MonitoringConfig
	Overview   OverviewConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	IngestRole   string `mapstructure:"ingest_role"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	ChartTTL time.Duration `mapstructure:"chart_ttl"`
}

type MonitoringConfig struct {
	LogLevel           string `mapstructure:"log_level"`
	PrometheusEndpoint string `mapstructure:"prometheus_endpoint"`
	LokiEndpoint       string `mapstructure:"loki_endpoint"`
}

// OverviewConfig tunes the derived device status. Deployed revisions of
// the dashboard disagreed on the online threshold (5 minutes vs 3
// hours), so it is a configuration value with the wider default.
type OverviewConfig struct {
	OnlineThreshold time.Duration `mapstructure:"online_threshold"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("APIARYHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	for _, db := range []string{"database.timescaledb", "database.postgres_app"} {
		viper.SetDefault(db+".sslmode", "disable")
		viper.SetDefault(db+".max_open_conns", 25)
		viper.SetDefault(db+".max_idle_conns", 5)
		viper.SetDefault(db+".conn_max_lifetime", "5m")
	}

	// Redis defaults
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.chart_ttl", "1m")

	// Keycloak defaults
	viper.SetDefault("keycloak.ingest_role", "datapipeline")

	// Monitoring defaults
	viper.SetDefault("monitoring.log_level", "info")
	viper.SetDefault("monitoring.prometheus_endpoint", "http://localhost:9090")
	viper.SetDefault("monitoring.loki_endpoint", "http://localhost:3100")

	// Overview defaults
	viper.SetDefault("overview.online_threshold", "3h")
}

func validateConfig(config *Config) error {
	if config.Database.TimescaleDB.Host == "" {
		return fmt.Errorf("timescaledb host is required")
	}
	if config.Database.AppDB.Host == "" {
		return fmt.Errorf("postgres app host is required")
	}
	if config.Keycloak.URL == "" {
		return fmt.Errorf("keycloak URL is required")
	}
	if config.Overview.OnlineThreshold <= 0 {
		return fmt.Errorf("overview online threshold must be positive")
	}
	return nil
}
