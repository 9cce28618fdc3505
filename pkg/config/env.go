package config

import (
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of the environment variables read by LoadEnv.
const EnvPrefix = "MRPKG"

// Env holds the environment overrides: MRPKG_ROOT, MRPKG_CONFIG and MRPKG_LOG_LEVEL.
type Env struct {
	Root     string `envconfig:"ROOT"`
	Config   string `envconfig:"CONFIG"`
	LogLevel string `envconfig:"LOG_LEVEL"`
}

// LoadEnv reads the environment overrides.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Apply copies every non-empty override into c.
func (e Env) Apply(c *Config) {
	if e.Root != "" {
		c.Root = e.Root
	}
	if e.LogLevel != "" {
		c.Settings.LogLevel = e.LogLevel
	}
}
