package config

import (
	"math"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel      = "info"
	defaultConfigPath    = "/etc/scadactl.toml"
	defaultBaseURL       = "http://localhost:8080/Scada-LTS"
	defaultTimeout       = 5
	defaultSampleRateHz  = 1.0
	defaultBufferSeconds = 300
	defaultCatalogDB     = "/var/lib/scadactl/catalog.db"
	defaultListen        = ":8000"
	defaultModel         = "claude-sonnet-4-20250514"
	defaultMaxTokens     = 1024
)

// ScadaConfig holds the connection settings for the SCADA-LTS endpoint.
type ScadaConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-request timeout for SCADA calls.
func (c ScadaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CollectorConfig holds the sampling settings for the data collector.
type CollectorConfig struct {
	SampleRateHz  float64 `mapstructure:"sample_rate_hz"`
	BufferSeconds int     `mapstructure:"buffer_seconds"`
}

// SampleInterval returns the time between collection cycles.
func (c CollectorConfig) SampleInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.SampleRateHz)
}

// MaxBufferSize returns the history ring capacity: round(rate * window).
func (c CollectorConfig) MaxBufferSize() int {
	return int(math.Round(c.SampleRateHz * float64(c.BufferSeconds)))
}

// LLMConfig holds the settings for the analysis advisor.
type LLMConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// ServerConfig holds the HTTP facade settings.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type Config struct {
	Scada     ScadaConfig     `mapstructure:"scada"`
	Collector CollectorConfig `mapstructure:"collector"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Server    ServerConfig    `mapstructure:"server"`
	CatalogDB string          `mapstructure:"catalog_db"`
	LogLevel  string          `mapstructure:"log_level"`
}

// Load assembles the configuration from defaults, the TOML config file
// (SCADACTL_CONFIG or /etc/scadactl.toml), SCADACTL_* environment
// variables and command line flags, in that order of precedence, and
// validates the result before returning it.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("scadactl", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("config", "", "Path to config file")
	fs.String("log-level", "", "Log level (debug, info, warning, error)")
	fs.String("scada-url", "", "Base URL of the SCADA-LTS endpoint")
	fs.String("listen", "", "Listen address for the HTTP server")
	fs.String("api-key", "", "Anthropic API key for the advisor")
	fs.Float64("sample-rate", 0, "Sampling rate in Hz")
	fs.Int("buffer-seconds", 0, "History retention window in seconds")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	configPath := os.Getenv("SCADACTL_CONFIG")
	if path, err := fs.GetString("config"); err == nil && path != "" {
		configPath = path
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(defaultConfigPath)
	}
	v.SetConfigType("toml")

	// A missing config file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, errFactory.WithMessage(errors.ErrReadConfig,
			"Failed to read config file: "+err.Error())
	}

	v.SetEnvPrefix("SCADACTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyFlagOverrides(v, fs)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scada.base_url", defaultBaseURL)
	v.SetDefault("scada.username", "admin")
	v.SetDefault("scada.password", "admin")
	v.SetDefault("scada.timeout_seconds", defaultTimeout)
	v.SetDefault("collector.sample_rate_hz", defaultSampleRateHz)
	v.SetDefault("collector.buffer_seconds", defaultBufferSeconds)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", defaultModel)
	v.SetDefault("llm.max_tokens", defaultMaxTokens)
	v.SetDefault("server.listen", defaultListen)
	v.SetDefault("catalog_db", defaultCatalogDB)
	v.SetDefault("log_level", DefaultLogLevel)
}

func applyFlagOverrides(v *viper.Viper, fs *pflag.FlagSet) {
	overrides := map[string]string{
		"log-level":      "log_level",
		"scada-url":      "scada.base_url",
		"listen":         "server.listen",
		"api-key":        "llm.api_key",
		"sample-rate":    "collector.sample_rate_hz",
		"buffer-seconds": "collector.buffer_seconds",
	}

	fs.Visit(func(f *pflag.Flag) {
		if key, ok := overrides[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

// Validate checks the assembled configuration and returns a single error
// enumerating every invalid field.
func (c *Config) Validate() error {
	var violations []string

	if c.Scada.BaseURL == "" {
		violations = append(violations, "scada.base_url must not be empty")
	}
	if c.Scada.TimeoutSeconds <= 0 {
		violations = append(violations, "scada.timeout_seconds must be > 0")
	}
	if c.Collector.SampleRateHz <= 0 {
		violations = append(violations, "collector.sample_rate_hz must be > 0")
	}
	if c.Collector.BufferSeconds <= 0 {
		violations = append(violations, "collector.buffer_seconds must be > 0")
	}
	if c.LLM.MaxTokens <= 0 {
		violations = append(violations, "llm.max_tokens must be > 0")
	}
	if !isValidLogLevel(c.LogLevel) {
		violations = append(violations, "log_level must be one of debug, info, warning, error")
	}

	if len(violations) > 0 {
		return errors.New().WithData(errors.ErrInvalidConfig, violations)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warning", "warn", "error":
		return true
	default:
		return false
	}
}
