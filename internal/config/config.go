package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/sut-config/internal/configstore"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
	configFileName        = "SUT_config.cfg"

	windowsOverridePath = `C:\Clients\configuration\SUT_config.cfg`
	unixOverridePath    = "/etc/sut/SUT_config.cfg"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	OverridePath         string        `yaml:"override_path"`
	DefaultPath          string        `yaml:"default_path"`
	PlatformEnv          string        `yaml:"platform_env"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	LogLevel             string        `yaml:"log_level"`
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	OverridePath         string        `yaml:"override_path"`
	DefaultPath          string        `yaml:"default_path"`
	PlatformEnv          string        `yaml:"platform_env"`
	CacheTTL             string        `yaml:"cache_ttl"`
	LogLevel             string        `yaml:"log_level"`
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	OverridePath   *string
	DefaultPath    *string
	PlatformEnv    *string
	CacheTTL       *time.Duration
	LogLevel       *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	applyEnvConfig(&cfg)

	// Load from YAML file if specified (overrides env)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Paths returns the candidate configuration files for the store.
func (c Config) Paths() configstore.Paths {
	return configstore.Paths{
		Override: c.OverridePath,
		Default:  c.DefaultPath,
	}
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		OverridePath:         defaultOverridePath(runtime.GOOS),
		DefaultPath:          defaultStorePath(),
		PlatformEnv:          configstore.DefaultPlatformEnv,
		LogLevel:             defaultLogLevel,
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

func defaultOverridePath(goos string) string {
	if goos == "windows" {
		return windowsOverridePath
	}
	return unixOverridePath
}

// defaultStorePath places the configuration file next to the running binary.
func defaultStorePath() string {
	exe, err := os.Executable()
	if err != nil {
		return configFileName
	}
	return filepath.Join(filepath.Dir(exe), configFileName)
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.OverridePath != "" {
		cfg.OverridePath = yamlCfg.OverridePath
	}
	if yamlCfg.DefaultPath != "" {
		cfg.DefaultPath = yamlCfg.DefaultPath
	}
	if yamlCfg.PlatformEnv != "" {
		cfg.PlatformEnv = yamlCfg.PlatformEnv
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"cache_ttl", yamlCfg.CacheTTL, &cfg.CacheTTL},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if path := strings.TrimSpace(os.Getenv("SUTCONFIG_OVERRIDE_PATH")); path != "" {
		cfg.OverridePath = path
	}

	if path := strings.TrimSpace(os.Getenv("SUTCONFIG_DEFAULT_PATH")); path != "" {
		cfg.DefaultPath = path
	}

	if ttl := strings.TrimSpace(os.Getenv("SUTCONFIG_CACHE_TTL")); ttl != "" {
		if value, err := time.ParseDuration(ttl); err == nil && value >= 0 {
			cfg.CacheTTL = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.OverridePath != nil && *overrides.OverridePath != "" {
		cfg.OverridePath = *overrides.OverridePath
	}

	if overrides.DefaultPath != nil && *overrides.DefaultPath != "" {
		cfg.DefaultPath = *overrides.DefaultPath
	}

	if overrides.PlatformEnv != nil && *overrides.PlatformEnv != "" {
		cfg.PlatformEnv = *overrides.PlatformEnv
	}

	if overrides.CacheTTL != nil {
		cfg.CacheTTL = *overrides.CacheTTL
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.DefaultPath == "" {
		return fmt.Errorf("default configuration path cannot be empty")
	}
	if cfg.PlatformEnv == "" {
		return fmt.Errorf("platform environment variable name cannot be empty")
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}
