package contactcli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultServer is used until a server is configured.
const DefaultServer = "http://localhost:8080"

// Location and permissions of the config file under the user's config dir.
const (
	ConfigDirName  = "contact"
	ConfigFileName = "config.yaml"
	ConfigDirPerm  = 0700
	ConfigFilePerm = 0600
)

// Config is the CLI's persisted state: where to send submissions and which
// Origin to present.
type Config struct {
	Server string `yaml:"server,omitempty"`
	Origin string `yaml:"origin,omitempty"`
}

// ConfigKey names a value settable with "contact config set".
type ConfigKey string

const (
	ConfigKeyServer ConfigKey = "server"
	ConfigKeyOrigin ConfigKey = "origin"
)

var configKeys = []ConfigKey{ConfigKeyServer, ConfigKeyOrigin}

// ValidConfigKeys returns the settable keys in display order.
func ValidConfigKeys() []ConfigKey {
	return slices.Clone(configKeys)
}

func IsValidConfigKey(key string) bool {
	return slices.Contains(configKeys, ConfigKey(key))
}

// GetConfigValue returns the value for a config key
func (c *Config) GetConfigValue(key string) (string, error) {
	switch ConfigKey(key) {
	case ConfigKeyServer:
		return c.GetServer(), nil
	case ConfigKeyOrigin:
		return c.Origin, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// SetConfigValue sets the value for a config key
func (c *Config) SetConfigValue(key, value string) error {
	switch ConfigKey(key) {
	case ConfigKeyServer:
		if err := checkURL(value); err != nil {
			return fmt.Errorf("invalid server: %w", err)
		}
		c.Server = value
	case ConfigKeyOrigin:
		if value != "" {
			if err := checkURL(value); err != nil {
				return fmt.Errorf("invalid origin: %w", err)
			}
		}
		c.Origin = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func checkURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must start with http:// or https://", value)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", value)
	}
	return nil
}

// GetServer returns the configured server or default
func (c *Config) GetServer() string {
	if c.Server == "" {
		return DefaultServer
	}
	return c.Server
}

// GetConfigPath returns $XDG_CONFIG_HOME/contact/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func GetConfigPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, ConfigDirName, ConfigFileName), nil
}

// LoadConfig reads the config file. A missing file is an empty config.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to a temp file beside the config and renames it into
// place.
func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Chmod(ConfigFilePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set config file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}
