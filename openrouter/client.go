// Package openrouter is a typed client for the OpenRouter gateway API:
// chat completions (blocking and streaming), the model catalog, credit and
// key metadata, and the PKCE key exchange. All operations are thin typed
// pass-throughs over the transport package, which owns authentication,
// retries, and error classification.
package openrouter

import (
	"net/http"
	"time"

	"github.com/kbukum/routerkit/auth"
	"github.com/kbukum/routerkit/config"
	"github.com/kbukum/routerkit/logger"
	"github.com/kbukum/routerkit/transport"
	"github.com/kbukum/routerkit/util"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds client settings. Zero-valued fields take the documented
// defaults; invalid values (a negative duration, a relative URL) are
// rejected at construction. Loadable via config.Load with OPENROUTER_*
// environment variables.
type Config struct {
	// APIKey is the OpenRouter key, sent as "Authorization: Bearer <key>".
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Auth overrides APIKey with a custom credential provider.
	Auth auth.Provider `mapstructure:"-" yaml:"-"`

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Referer and Title identify the calling application to the gateway
	// (sent as HTTP-Referer and X-Title).
	Referer string `mapstructure:"referer" yaml:"referer"`
	Title   string `mapstructure:"title" yaml:"title"`

	// RequestTimeout bounds one attempt. Default 2m.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// Timeout bounds a whole call including retries. Default 5m.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// DisableRetry turns the retry loop off (exactly one attempt).
	DisableRetry bool `mapstructure:"disable_retry" yaml:"disable_retry"`

	// MaxRetryAttempts is the number of retries after the first attempt.
	// Default 2. Use DisableRetry for a single attempt; zero means unset.
	MaxRetryAttempts int `mapstructure:"max_retry_attempts" yaml:"max_retry_attempts"`

	// RetryDelay is the base backoff delay, doubled per retry. Default 500ms.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// StreamBufferSize caps one SSE frame. Default 64 KiB.
	StreamBufferSize int `mapstructure:"stream_buffer_size" yaml:"stream_buffer_size"`

	// StreamReadTimeout bounds the silence between stream frames. Zero
	// disables it.
	StreamReadTimeout time.Duration `mapstructure:"stream_read_timeout" yaml:"stream_read_timeout"`

	// UserAgent overrides the default routerkit/<version> agent string.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// Logger receives client diagnostics. Nil keeps the client silent.
	Logger *logger.Logger `mapstructure:"-" yaml:"-"`
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	def := transport.DefaultConfig()
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.MaxRetryAttempts == 0 {
		c.MaxRetryAttempts = def.MaxRetryAttempts
	}
	if c.StreamBufferSize == 0 {
		c.StreamBufferSize = def.StreamBufferSize
	}
}

func (c *Config) provider() auth.Provider {
	if c.Auth != nil {
		return c.Auth
	}
	if c.APIKey != "" {
		return auth.NewAPIKey(c.APIKey)
	}
	return nil
}

func (c *Config) transportConfig() transport.Config {
	return transport.Config{
		BaseURL:           c.BaseURL,
		Auth:              c.provider(),
		RequestTimeout:    c.RequestTimeout,
		Timeout:           c.Timeout,
		EnableRetry:       !c.DisableRetry,
		MaxRetryAttempts:  c.MaxRetryAttempts,
		RetryDelay:        c.RetryDelay,
		Referer:           c.Referer,
		Title:             c.Title,
		UserAgent:         c.UserAgent,
		StreamBufferSize:  c.StreamBufferSize,
		StreamReadTimeout: c.StreamReadTimeout,
		Logger:            c.Logger,
	}
}

// Option customizes the client. The helpers below cover the common cases;
// any transport.Option works.
type Option = transport.Option

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return transport.WithHTTPClient(hc) }

// WithLogger routes client diagnostics to the given logger.
func WithLogger(log *logger.Logger) Option { return transport.WithLogger(log) }

// Client calls the OpenRouter API. Safe for concurrent use.
type Client struct {
	transport *transport.Client
	log       *logger.Logger
}

// New builds a client. Configuration problems surface here as
// configuration errors, before any request is made.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.applyDefaults()

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	tc, err := transport.New(cfg.transportConfig(), opts...)
	if err != nil {
		return nil, err
	}

	log = log.WithComponent("openrouter")
	log.Debug("client ready", logger.Fields(
		"base_url", cfg.BaseURL,
		"api_key", util.MaskSecret(cfg.APIKey, 8),
	))
	return &Client{transport: tc, log: log}, nil
}

// NewFromEnv builds a client from OPENROUTER_* environment variables,
// discovered .env files, and an optional openrouter.yml, via config.Load.
func NewFromEnv(opts ...Option) (*Client, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, transport.NewConfigurationError("environment", err.Error())
	}
	cfg.Logger = logger.NewFromEnv()
	return New(cfg, opts...)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.Close()
}
