// Package config loads cmd/rdp-proxy's configuration from flags,
// environment variables, and an optional config file, in that order of
// precedence, using viper for layering and validator for the field-range
// invariants the proxy cares about.
//
// Grounded on marmos91-dittofs's pkg/config/config.go (viper setup,
// env-prefix + key replacer, ReadInConfig-not-found-is-ok handling) and
// codeninja55-go-radx's use of validator/v10 struct tags in place of
// hand-written range checks.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every setting cmd/rdp-proxy needs to stand up a listener
// and drive a session.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	RDP      RDPConfig      `mapstructure:"rdp"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig controls the TCP listener the proxy accepts connections on.
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
}

// RDPConfig bounds the desktop geometry and buffering the acceptor offers.
type RDPConfig struct {
	DefaultWidth  uint16        `mapstructure:"default_width" validate:"gte=200,lte=8192"`
	DefaultHeight uint16        `mapstructure:"default_height" validate:"gte=200,lte=8192"`
	MaxWidth      uint16        `mapstructure:"max_width" validate:"gtefield=DefaultWidth,lte=8192"`
	MaxHeight     uint16        `mapstructure:"max_height" validate:"gtefield=DefaultHeight,lte=8192"`
	BufferSize    int           `mapstructure:"buffer_size" validate:"gt=0"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// SecurityConfig controls TLS and NLA enforcement ahead of the RDP
// handshake proper.
type SecurityConfig struct {
	MaxConnections    int    `mapstructure:"max_connections" validate:"gt=0"`
	EnableTLS         bool   `mapstructure:"enable_tls"`
	TLSCertFile       string `mapstructure:"tls_cert_file" validate:"required_if=EnableTLS true"`
	TLSKeyFile        string `mapstructure:"tls_key_file" validate:"required_if=EnableTLS true"`
	SkipTLSValidation bool   `mapstructure:"skip_tls_validation"`
	UseNLA            bool   `mapstructure:"use_nla"`
}

// LoggingConfig controls internal/observability's zap logger construction.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=console json"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// Overrides carries CLI flag values that take precedence over the config
// file and environment when set.
type Overrides struct {
	Host       string
	Port       int
	LogLevel   string
	ConfigFile string
}

func defaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3389)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("rdp.default_width", 1024)
	v.SetDefault("rdp.default_height", 768)
	v.SetDefault("rdp.max_width", 3840)
	v.SetDefault("rdp.max_height", 2160)
	v.SetDefault("rdp.buffer_size", 65536)
	v.SetDefault("rdp.timeout", 10*time.Second)

	v.SetDefault("security.max_connections", 100)
	v.SetDefault("security.enable_tls", false)
	v.SetDefault("security.use_nla", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

// Load reads configuration from (in increasing precedence) defaults, an
// optional config file, RDPPROXY_-prefixed environment variables, and
// opts, then validates the result.
func Load(opts Overrides) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("RDPPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("rdp-proxy")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rdp-proxy")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	if opts.Host != "" {
		v.Set("server.host", opts.Host)
	}
	if opts.Port != 0 {
		v.Set("server.port", opts.Port)
	}
	if opts.LogLevel != "" {
		v.Set("logging.level", opts.LogLevel)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate runs the struct-tag validation rules over cfg.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}
