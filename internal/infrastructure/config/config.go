package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultDataDir = "data"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production test"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host            string        `mapstructure:"host" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       string        `mapstructure:"body_limit" validate:"required"`
}

// StorageConfig locates the resource files and their first-run defaults.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	SeedDir string `mapstructure:"seed_dir"`
}

// AuthConfig holds the static admin token. Either field may be set; when both
// are empty every write is rejected.
type AuthConfig struct {
	APIToken     string `mapstructure:"api_token"`
	APITokenHash string `mapstructure:"api_token_hash"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Format   string `mapstructure:"format" validate:"oneof=json console"`
	Output   string `mapstructure:"output" validate:"oneof=stdout file"`
	Filename string `mapstructure:"filename" validate:"required_if=Output file"`
}

// SecurityConfig holds CORS, rate limit and caching settings
type SecurityConfig struct {
	AllowedOrigin          string        `mapstructure:"allowed_origin"`
	AdminRateLimitRequests int           `mapstructure:"admin_rate_limit_requests" validate:"min=1"`
	AdminRateLimitWindow   time.Duration `mapstructure:"admin_rate_limit_window" validate:"gt=0"`
	CacheMaxAge            time.Duration `mapstructure:"cache_max_age"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WatcherConfig toggles the data directory watcher
type WatcherConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from the environment, a .env file and defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Storage.DataDir) == "" {
		cfg.Storage.DataDir = defaultDataDir
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "siteapi")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	// Server defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.body_limit", "1M")

	// Storage defaults
	v.SetDefault("storage.data_dir", defaultDataDir)
	v.SetDefault("storage.seed_dir", ".")

	// Auth defaults
	v.SetDefault("auth.api_token", "")
	v.SetDefault("auth.api_token_hash", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.allowed_origin", "")
	v.SetDefault("security.admin_rate_limit_requests", 60)
	v.SetDefault("security.admin_rate_limit_window", "15m")
	v.SetDefault("security.cache_max_age", "60s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("watcher.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	// App
	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.version", "APP_VERSION")
	_ = v.BindEnv("app.environment", "APP_ENVIRONMENT")

	// Server
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.host", "HOST")
	_ = v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	_ = v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	_ = v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	_ = v.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("server.body_limit", "BODY_LIMIT")

	// Storage
	_ = v.BindEnv("storage.data_dir", "DATA_DIR")
	_ = v.BindEnv("storage.seed_dir", "SEED_DIR")

	// Auth
	_ = v.BindEnv("auth.api_token", "API_TOKEN")
	_ = v.BindEnv("auth.api_token_hash", "API_TOKEN_HASH")

	// Logger
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
	_ = v.BindEnv("logger.format", "LOG_FORMAT")
	_ = v.BindEnv("logger.output", "LOG_OUTPUT")
	_ = v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	_ = v.BindEnv("security.allowed_origin", "ALLOWED_ORIGIN")
	_ = v.BindEnv("security.admin_rate_limit_requests", "ADMIN_RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("security.admin_rate_limit_window", "ADMIN_RATE_LIMIT_WINDOW")
	_ = v.BindEnv("security.cache_max_age", "CACHE_MAX_AGE")

	_ = v.BindEnv("metrics.enabled", "ENABLE_METRICS")
	_ = v.BindEnv("watcher.enabled", "WATCH_DATA_DIR")
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.Auth.APIToken == "" && cfg.Auth.APITokenHash == "" && cfg.App.IsProduction() {
		return fmt.Errorf("API_TOKEN or API_TOKEN_HASH must be set in production")
	}

	return nil
}

// Addr returns the listen address
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
