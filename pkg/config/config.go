// Package config provides configuration management for mrpkg.
// It loads the YAML configuration file, applies environment overrides and defaults,
// validates the result and resolves the filesystem layout under the configured root.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
	"github.com/cperrin88/mrpkg/pkg/model"
)

// Config represents the application configuration.
type Config struct {
	// Root is the filesystem root packages are installed under.
	Root string `yaml:"root" validate:"required"`

	// General settings
	Settings Settings `yaml:"settings"`

	// Repository configuration. Repositories are seeded into the package database;
	// a name that is already registered there keeps its stored state.
	Repositories []model.Repository `yaml:"repositories" validate:"unique=Name,dive"`
}

// Settings represents general application settings.
type Settings struct {
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	// Network settings
	CatalogTimeout time.Duration `yaml:"catalog_timeout" validate:"gte=0"`
	PackageTimeout time.Duration `yaml:"package_timeout" validate:"gte=0"`
	HTTPRetries    int           `yaml:"http_retries" validate:"gte=0,lte=10"`
	UserAgent      string        `yaml:"user_agent,omitempty"`

	// Installation settings
	RejectPathTraversal bool   `yaml:"reject_path_traversal"`
	HooksDir            string `yaml:"hooks_dir,omitempty"`
}

// Default configuration values.
const (
	DefaultRoot           = "/"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultCatalogTimeout = 30 * time.Second
	DefaultPackageTimeout = 60 * time.Second

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

var validate = validator.New()

// DefaultRepositories returns the repositories a fresh installation knows about.
func DefaultRepositories() []model.Repository {
	return []model.Repository{
		{Name: "main", URL: "https://packages.maxregneros.com/main", Enabled: true, Priority: 100},
		{Name: "updates", URL: "https://packages.maxregneros.com/updates", Enabled: true, Priority: 90},
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Root: DefaultRoot,
		Settings: Settings{
			LogLevel:       DefaultLogLevel,
			LogFormat:      DefaultLogFormat,
			CatalogTimeout: DefaultCatalogTimeout,
			PackageTimeout: DefaultPackageTimeout,
		},
		Repositories: DefaultRepositories(),
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration to path atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrConfigEncode, err.Error())
	}
	return buf.Bytes(), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigValidation, err.Error())
	}
	return nil
}

// applyDefaults fills in missing values with defaults.
// A file without a repositories key gets the default repositories; an explicit empty
// list stays empty.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Root == "" {
		c.Root = defaults.Root
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	if c.Settings.CatalogTimeout == 0 {
		c.Settings.CatalogTimeout = defaults.Settings.CatalogTimeout
	}
	if c.Settings.PackageTimeout == 0 {
		c.Settings.PackageTimeout = defaults.Settings.PackageTimeout
	}
	if c.Repositories == nil {
		c.Repositories = defaults.Repositories
	}
}

// Layout below the root.
const (
	DatabaseRelPath = "var/lib/mrpkg/packages.db"
	CacheRelDir     = "var/cache/mrpkg"
	ConfigRelPath   = "etc/mrpkg/mrpkg.yaml"
	HooksRelDir     = "etc/mrpkg/hooks"
)

// ConfigPath returns the default configuration file location under root.
func ConfigPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(ConfigRelPath))
}

// DatabasePath returns the path to the installed package database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Root, filepath.FromSlash(DatabaseRelPath))
}

// CacheDir returns the directory holding catalog snapshots and downloaded archives.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Root, filepath.FromSlash(CacheRelDir))
}

// HooksDir returns the lifecycle script directory. A relative hooks_dir setting is
// resolved against the root.
func (c *Config) HooksDir() string {
	dir := c.Settings.HooksDir
	if dir == "" {
		return filepath.Join(c.Root, filepath.FromSlash(HooksRelDir))
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// ValidateRepository checks a single repository definition.
func ValidateRepository(repo model.Repository) error {
	if err := validate.Struct(repo); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigValidation, err.Error())
	}
	return nil
}
