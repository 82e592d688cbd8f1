package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// ImportConfig controls trade file imports
type ImportConfig struct {
	DefaultTimezone string `yaml:"default_timezone"` // used when the account has none
	MaxUploadMB     int    `yaml:"max_upload_mb"`
	OrderType       string `yaml:"order_type"`
	Source          string `yaml:"source"`
	LockTTLSeconds  int    `yaml:"lock_ttl_seconds"`
	RatePerMinute   int    `yaml:"rate_per_minute"`
	Burst           int    `yaml:"burst"`
}

type LogConfig struct {
	Dir string `yaml:"dir"`
}

const (
	defaultTimezone      = "UTC"
	defaultMaxUploadMB   = 10
	defaultOrderType     = "IMPORT"
	defaultSource        = "ninjatrader"
	defaultLockTTL       = 120
	defaultRatePerMinute = 10
	defaultBurst         = 3
	defaultLogDir        = "logs"
)

// Load loads configuration from file, an optional .env file and environment variables
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Load from YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Override with environment variables if present
	cfg.loadFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// JWT
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.JWT.ExpireHours = hours
		}
	}

	// Import
	if v := os.Getenv("IMPORT_DEFAULT_TIMEZONE"); v != "" {
		c.Import.DefaultTimezone = v
	}
	if v := os.Getenv("IMPORT_MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil {
			c.Import.MaxUploadMB = mb
		}
	}
	if v := os.Getenv("IMPORT_RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Import.RatePerMinute = n
		}
	}

	// Log
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.JWT.ExpireHours == 0 {
		c.JWT.ExpireHours = 24
	}
	if c.Import.DefaultTimezone == "" {
		c.Import.DefaultTimezone = defaultTimezone
	}
	if c.Import.MaxUploadMB == 0 {
		c.Import.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Import.OrderType == "" {
		c.Import.OrderType = defaultOrderType
	}
	if c.Import.Source == "" {
		c.Import.Source = defaultSource
	}
	if c.Import.LockTTLSeconds == 0 {
		c.Import.LockTTLSeconds = defaultLockTTL
	}
	if c.Import.RatePerMinute == 0 {
		c.Import.RatePerMinute = defaultRatePerMinute
	}
	if c.Import.Burst == 0 {
		c.Import.Burst = defaultBurst
	}
	if c.Log.Dir == "" {
		c.Log.Dir = defaultLogDir
	}
}

// Validate reports configuration values the server cannot run with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if _, err := time.LoadLocation(c.Import.DefaultTimezone); err != nil {
		return fmt.Errorf("import.default_timezone: %w", err)
	}
	if c.Import.MaxUploadMB < 0 {
		return errors.New("import.max_upload_mb must be positive")
	}
	if c.Import.LockTTLSeconds < 0 {
		return errors.New("import.lock_ttl_seconds must be positive")
	}
	if c.Import.RatePerMinute < 0 || c.Import.Burst < 0 {
		return errors.New("import.rate_per_minute and import.burst must be positive")
	}
	return nil
}

// Location returns the default import timezone
func (c *ImportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MaxUploadBytes returns the upload limit in bytes
func (c *ImportConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// LockTTL returns how long an execute lock is held at most
func (c *ImportConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
