package cli

import (
	"fmt"

	"github.com/cperrin88/mrpkg/internal/logger"
	"github.com/cperrin88/mrpkg/pkg/config"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	RootDir    *string
	Verbose    *bool
	LogFormat  *string
)

func flagValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// loadConfig resolves the configuration file, applies environment and flag overrides
// and initializes the logger. Flags win over MRPKG_* variables, which win over the file.
func loadConfig() (*config.Config, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg, err := config.LoadConfig(getConfigPath(env))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env.Apply(cfg)
	if root := flagValue(RootDir); root != "" {
		cfg.Root = root
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if format := flagValue(LogFormat); format != "" {
		cfg.Settings.LogFormat = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.ParseFormat(cfg.Settings.LogFormat))
	return cfg, nil
}

// getConfigPath returns --config, then MRPKG_CONFIG, then the default location under the root.
func getConfigPath(env config.Env) string {
	if path := flagValue(ConfigPath); path != "" {
		return path
	}
	if env.Config != "" {
		return env.Config
	}

	root := config.DefaultRoot
	if env.Root != "" {
		root = env.Root
	}
	if flagRoot := flagValue(RootDir); flagRoot != "" {
		root = flagRoot
	}
	return config.ConfigPath(root)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
