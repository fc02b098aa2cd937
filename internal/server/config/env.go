package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays variables named by the env tags on Config. Fields whose
// variable is unset keep their current value; Config carries no env-default
// tags, so cleanenv never resets anything.
func parseEnv(config *Config) error {
	return cleanenv.ReadEnv(config)
}
