// Package config loads runtime configuration for the stockkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables (see parseEnv), read with cleanenv.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the inventory API
//	-d string   path of the local SQLite database
//	-i int      online status check interval (seconds)
//	-t int      per-request timeout (seconds)
//	-s int      low stock threshold used by the dashboard
//	-l string   log level (debug, info, warn, error)
//
// Environment
//
//	INVENTORY_API_BASE_URL, INVENTORY_DB_PATH, INVENTORY_LOG_LEVEL,
//	INVENTORY_REQUEST_TIMEOUT, INVENTORY_ONLINE_CHECK_INTERVAL,
//	INVENTORY_LOW_STOCK_THRESHOLD
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Missing keys keep earlier values:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8000/api/",
//	  "database_path": "stockkeeper.db",
//	  "request_timeout": "15s",
//	  "online_check_interval": "3s",
//	  "low_stock_threshold": 10,
//	  "log_level": "info"
//	}
package config
