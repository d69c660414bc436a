// Package config handles configuration for the development server,
// including defaults, JSON overlay, environment and command-line flags.
package config

import "time"

// Config holds runtime settings for the development server.
//
// Fields:
//   - Address: bind address of the HTTP listener.
//   - AccessTokenTTL: lifetime of issued access tokens. Short values make
//     the client's refresh path easy to observe.
//   - Seed: load the demo catalogue and the demo/demo account on start.
//   - Paginate: wrap list responses in {"count", "results"} envelopes.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Address        string        `env:"DEVSERVER_ADDRESS"`
	AccessTokenTTL time.Duration `env:"DEVSERVER_ACCESS_TOKEN_TTL"`
	Seed           bool          `env:"DEVSERVER_SEED"`
	Paginate       bool          `env:"DEVSERVER_PAGINATE"`
	LogLevel       string        `env:"DEVSERVER_LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Address = "127.0.0.1:8000"
	c.AccessTokenTTL = 5 * time.Minute
	c.Seed = true
	c.Paginate = false
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
