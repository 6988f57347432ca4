package transport

import (
	"net/url"
	"time"

	"github.com/kbukum/routerkit/auth"
	"github.com/kbukum/routerkit/logger"
	"github.com/kbukum/routerkit/validation"
)

// Config holds the transport settings. Construction validates strictly:
// a zero or negative duration is rejected rather than silently defaulted,
// so a misconfigured client fails before any request is sent. Start from
// DefaultConfig and override.
type Config struct {
	// BaseURL is the absolute root of the gateway API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required"`

	// Auth supplies the credential per call. Nil sends unauthenticated
	// requests.
	Auth auth.Provider `mapstructure:"-" yaml:"-"`

	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gt=0"`

	// Timeout bounds a whole call including retries and backoff waits.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`

	// EnableRetry turns the retry loop on. Off means exactly one attempt.
	EnableRetry bool `mapstructure:"enable_retry" yaml:"enable_retry"`

	// MaxRetryAttempts is the number of retries after the first attempt.
	MaxRetryAttempts int `mapstructure:"max_retry_attempts" yaml:"max_retry_attempts" validate:"gte=0"`

	// RetryDelay is the base backoff delay, doubled per retry.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay" validate:"gt=0"`

	// Headers are applied to every request. Per-request headers override.
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`

	// Referer is sent as HTTP-Referer for gateway-side app attribution.
	Referer string `mapstructure:"referer" yaml:"referer"`

	// Title is sent as X-Title for gateway-side app attribution.
	Title string `mapstructure:"title" yaml:"title"`

	// UserAgent overrides the default routerkit/<version> agent string.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// StreamBufferSize is the maximum SSE frame size in bytes.
	StreamBufferSize int `mapstructure:"stream_buffer_size" yaml:"stream_buffer_size" validate:"gt=0"`

	// StreamReadTimeout bounds the silence between stream reads. Zero
	// disables the watchdog.
	StreamReadTimeout time.Duration `mapstructure:"stream_read_timeout" yaml:"stream_read_timeout" validate:"gte=0"`

	// Logger receives transport diagnostics. Nil uses the package default.
	Logger *logger.Logger `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns a Config with working defaults for everything but
// BaseURL and Auth.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:   2 * time.Minute,
		Timeout:          5 * time.Minute,
		EnableRetry:      true,
		MaxRetryAttempts: 2,
		RetryDelay:       500 * time.Millisecond,
		StreamBufferSize: 64 * 1024,
	}
}

// Validate checks the configuration and returns a configuration error
// naming the first offending field.
func (c *Config) Validate() error {
	if fieldErrs := validation.Struct(c); len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return NewConfigurationError(fe.Field, fe.Message)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return NewConfigurationError("base_url", "must be a valid URL")
	}
	if !u.IsAbs() || u.Host == "" {
		return NewConfigurationError("base_url", "must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewConfigurationError("base_url", "must use http or https")
	}
	return nil
}
