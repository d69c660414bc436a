package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays Config with the DEVSERVER_* variables that are set.
// Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
