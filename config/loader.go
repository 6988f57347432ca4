// Package config loads SDK settings from YAML files, .env files, and
// prefixed environment variables, in that order of increasing precedence.
// Target structs use mapstructure tags:
//
//	type Settings struct {
//		APIKey  string `mapstructure:"api_key"`
//		BaseURL string `mapstructure:"base_url"`
//	}
//
// With the default prefix, OPENROUTER_API_KEY populates api_key.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPrefix is the environment variable prefix used when none is set.
const DefaultPrefix = "OPENROUTER"

// configFileNames are discovered in the working directory when no explicit
// config file is given.
var configFileNames = []string{"openrouter.yml", "openrouter.yaml"}

// envSearchPaths are tried in order when no explicit .env file is given.
var envSearchPaths = []string{".env", "../.env", "../../.env"}

// Options control the loader.
type Options struct {
	// Prefix selects which environment variables apply.
	Prefix string
	// ConfigFile is an explicit YAML path. Empty means discovery.
	ConfigFile string
	// EnvFile is an explicit .env path. Empty means discovery.
	EnvFile string
}

// Option is a functional option for Load.
type Option func(*Options)

// WithPrefix overrides the environment variable prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithConfigFile sets an explicit YAML config file. A missing or broken
// explicit file is an error, unlike discovered ones.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file.
func WithEnvFile(path string) Option {
	return func(o *Options) { o.EnvFile = path }
}

// Load populates cfg from a YAML config file, a .env file, and prefixed
// environment variables. Real environment variables win over .env entries,
// which win over the YAML file.
func Load(cfg any, opts ...Option) error {
	o := Options{Prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", o.ConfigFile, err)
		}
	} else if path := discoverFile(configFileNames); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", o.EnvFile, err)
		}
	} else if path := discoverFile(envSearchPaths); path != "" {
		// godotenv never overwrites variables already present in the
		// process environment.
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	bindPrefixedEnv(v, o.Prefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// bindPrefixedEnv copies every PREFIX_* environment variable into viper
// under its lowercased unprefixed name, so Unmarshal sees keys that were
// never mentioned in a config file.
func bindPrefixedEnv(v *viper.Viper, prefix string) {
	p := strings.ToUpper(prefix) + "_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], p) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], p))
		if key == "" {
			continue
		}
		v.Set(key, pair[1])
	}
}

func discoverFile(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
