package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// appName names the user config directory.
const appName = "maturity"

// configFileName is the file looked up in the config directories.
const configFileName = "config.yaml"

// Environment variables read directly by the loader.
const (
	EnvPrefix     = "MATURITY"
	EnvConfigPath = "MATURITY_CONFIG_PATH"
)

// Loader handles configuration loading with Viper.
//
// Create instances with [NewLoader]. A Loader is not safe for concurrent use.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader] with defaults and environment bindings
// registered.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Shortcuts, checked before the prefixed key names.
	_ = v.BindEnv("remote.base_url", "MATURITY_BASE_URL", "MATURITY_REMOTE_BASE_URL")
	_ = v.BindEnv("stages.strict", "MATURITY_STRICT_STAGES", "MATURITY_STAGES_STRICT")
	_ = v.BindEnv("remote.store_file", "MATURITY_STORE_FILE", "MATURITY_REMOTE_STORE_FILE")

	setDefaults(v, DefaultConfig())
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.store_file", d.Remote.StoreFile)
	v.SetDefault("sync.refresh_interval", d.Sync.RefreshInterval)
	v.SetDefault("stages.strict", d.Stages.Strict)
	v.SetDefault("criteria.manifest_path", d.Criteria.ManifestPath)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Load resolves the configuration following the package priority order.
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return l.LoadFromFile(path)
	}

	if path, err := DefaultConfigPath(); err == nil && fileExists(path) {
		return l.LoadFromFile(path)
	}

	if fileExists(configFileName) {
		return l.LoadFromFile(configFileName)
	}

	return l.unmarshal()
}

// LoadFromFile reads the given config file. The format follows the file
// extension (yaml, yml or json).
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigDir returns the platform-standard maturity config directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigPath returns the config file path inside [ConfigDir].
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// EnsureConfigDir creates [ConfigDir] if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path, or to
// [DefaultConfigPath] when path is empty, and returns the path written. An
// existing file is replaced only when overwrite is set.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		if err := EnsureConfigDir(); err != nil {
			return "", err
		}
		p, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = p
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	write := v.SafeWriteConfigAs
	if overwrite {
		write = v.WriteConfigAs
	}
	if err := write(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
