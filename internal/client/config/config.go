package config

import "time"

// Config holds runtime settings for the stockkeeper CLI.
type Config struct {
	APIBaseURL          string        `env:"INVENTORY_API_BASE_URL"`
	DatabasePath        string        `env:"INVENTORY_DB_PATH"`
	RequestTimeout      time.Duration `env:"INVENTORY_REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"INVENTORY_ONLINE_CHECK_INTERVAL"`
	LowStockThreshold   int           `env:"INVENTORY_LOW_STOCK_THRESHOLD"`
	LogLevel            string        `env:"INVENTORY_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api/"
	c.DatabasePath = "stockkeeper.db"
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LowStockThreshold = 10
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
