// Package config loads the setops YAML configuration with SETOPS_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Render    RenderConfig    `yaml:"render"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	// GymsFile replaces the built-in gym registry when set.
	GymsFile string `yaml:"gyms_file"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite file.
	Path string `yaml:"path"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type RenderConfig struct {
	BackgroundDir string        `yaml:"background_dir"`
	OutputDir     string        `yaml:"output_dir"`
	LoadTimeout   time.Duration `yaml:"load_timeout"`
}

type AnalysisConfig struct {
	MaxBouldersPerSetter float64 `yaml:"max_boulders_per_setter"`
	MaxRoutesPerSetter   float64 `yaml:"max_routes_per_setter"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used when no file is given: SQLite in
// the working directory on localhost:8080. Environment overrides still apply.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	cfg.applyDefaults()
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix SETOPS_ and underscore-separated paths:
//
//	SETOPS_SERVER_HOST, SETOPS_SERVER_PORT, SETOPS_AUTH_API_KEY,
//	SETOPS_DB_DRIVER, SETOPS_DB_PATH,
//	SETOPS_DB_HOST, SETOPS_DB_PORT, SETOPS_DB_NAME,
//	SETOPS_DB_USER, SETOPS_DB_PASSWORD, SETOPS_DB_SSLMODE,
//	SETOPS_REDIS_ADDR, SETOPS_REDIS_PASSWORD, SETOPS_REDIS_DB,
//	SETOPS_TAILSCALE_ENABLED, SETOPS_TAILSCALE_HOSTNAME,
//	SETOPS_RENDER_BACKGROUND_DIR, SETOPS_RENDER_OUTPUT_DIR,
//	SETOPS_GYMS_FILE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := map[string]*string{
		"SETOPS_SERVER_HOST":           &cfg.Server.Host,
		"SETOPS_AUTH_API_KEY":          &cfg.Auth.APIKey,
		"SETOPS_DB_DRIVER":             &cfg.Database.Driver,
		"SETOPS_DB_PATH":               &cfg.Database.Path,
		"SETOPS_DB_HOST":               &cfg.Database.Host,
		"SETOPS_DB_NAME":               &cfg.Database.Name,
		"SETOPS_DB_USER":               &cfg.Database.User,
		"SETOPS_DB_PASSWORD":           &cfg.Database.Password,
		"SETOPS_DB_SSLMODE":            &cfg.Database.SSLMode,
		"SETOPS_REDIS_ADDR":            &cfg.Database.Redis.Addr,
		"SETOPS_REDIS_PASSWORD":        &cfg.Database.Redis.Password,
		"SETOPS_TAILSCALE_HOSTNAME":    &cfg.Tailscale.Hostname,
		"SETOPS_RENDER_BACKGROUND_DIR": &cfg.Render.BackgroundDir,
		"SETOPS_RENDER_OUTPUT_DIR":     &cfg.Render.OutputDir,
		"SETOPS_GYMS_FILE":             &cfg.GymsFile,
	}
	for env, dst := range str {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SETOPS_SERVER_PORT": &cfg.Server.Port,
		"SETOPS_DB_PORT":     &cfg.Database.Port,
		"SETOPS_REDIS_DB":    &cfg.Database.Redis.DB,
	}
	for env, dst := range ints {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	if v := os.Getenv("SETOPS_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "setops.db"
	}
	if c.Database.Driver == DriverPostgres && c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.Driver == DriverRedis && c.Database.Redis.Addr == "" {
		c.Database.Redis.Addr = "localhost:6379"
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "setops"
	}
	if c.Render.OutputDir == "" {
		c.Render.OutputDir = "maps"
	}
	if c.Render.LoadTimeout <= 0 {
		c.Render.LoadTimeout = 3 * time.Second
	}
	if c.Analysis.MaxBouldersPerSetter <= 0 {
		c.Analysis.MaxBouldersPerSetter = 12
	}
	if c.Analysis.MaxRoutesPerSetter <= 0 {
		c.Analysis.MaxRoutesPerSetter = 3
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverRedis:
	default:
		return fmt.Errorf("database.driver %q is not one of sqlite, postgres, redis", c.Database.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		return fmt.Errorf("tailscale.state_dir is required when tailscale is enabled")
	}
	return nil
}
