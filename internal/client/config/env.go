package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays Config with the INVENTORY_* environment variables that
// are set. Unset variables leave fields untouched. Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
