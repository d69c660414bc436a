package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/stockkeeper/internal/flagx"
	"github.com/dmitrijs2005/stockkeeper/internal/timex"
)

// JsonConfig is the JSON shape of Config. Seed and Paginate are pointers so
// an explicit false can be told apart from a missing key.
type JsonConfig struct {
	Address        string         `json:"address"`
	AccessTokenTTL timex.Duration `json:"access_token_ttl"`
	Seed           *bool          `json:"seed"`
	Paginate       *bool          `json:"paginate"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays Config with the JSON file named by -c or -config.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Address != "" {
		cfg.Address = jc.Address
	}
	if jc.AccessTokenTTL.Duration > 0 {
		cfg.AccessTokenTTL = jc.AccessTokenTTL.Duration
	}
	if jc.Seed != nil {
		cfg.Seed = *jc.Seed
	}
	if jc.Paginate != nil {
		cfg.Paginate = *jc.Paginate
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
