package config

import "github.com/caarlos0/env/v11"

// EnvPrefix is prepended to every variable name declared in Config's env tags.
const EnvPrefix = "EVENTHUB_"

// parseEnv overlays Config fields with EVENTHUB_* environment variables.
// Unset variables leave the current values untouched. Malformed values
// (for example an unparsable duration) panic, matching the JSON and flag
// loaders.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
