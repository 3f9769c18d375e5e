package config

import "time"

// Auth modes accepted by AuthMode.
const (
	AuthModeNone     = "none"
	AuthModeQueryKey = "query_key"
	AuthModeJWT      = "jwt"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// LivenessInterval is the period of the dead-publisher sweep.
	LivenessInterval time.Duration `mapstructure:"liveness_interval" yaml:"liveness_interval"`
	// SendBuffer is the per-connection outbound queue length. Frames beyond it are dropped.
	SendBuffer         int   `mapstructure:"send_buffer" yaml:"send_buffer"`
	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// PingInterval is the keepalive period on every connection; zero disables pings.
	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	// PingTimeout bounds the wait for a pong before the connection is expired.
	PingTimeout time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`

	AuthMode       string `mapstructure:"auth_mode" yaml:"auth_mode"`
	AuthQueryKey   string `mapstructure:"auth_query_key" yaml:"auth_query_key"`
	AuthQueryValue string `mapstructure:"auth_query_value" yaml:"auth_query_value"`
	JWTSecret      string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer      string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience    string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":3031",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LivenessInterval:   5 * time.Second,
		SendBuffer:         256,
		MaxMessageBytes:    1 << 20,
		RateLimitPerMinute: 0,
		PingInterval:       20 * time.Second,
		PingTimeout:        10 * time.Second,
		AuthMode:           AuthModeNone,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LivenessInterval != 0 {
		c.LivenessInterval = other.LivenessInterval
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.PingTimeout != 0 {
		c.PingTimeout = other.PingTimeout
	}
	if other.AuthMode != "" {
		c.AuthMode = other.AuthMode
	}
	if other.AuthQueryKey != "" {
		c.AuthQueryKey = other.AuthQueryKey
	}
	if other.AuthQueryValue != "" {
		c.AuthQueryValue = other.AuthQueryValue
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
}
