package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/wallet"
)

const (
	dirName    = ".w3invoke"
	configFile = "config.yaml"

	DefaultHDPath       = wallet.DefaultHDPath
	DefaultPollInterval = chain.DefaultPollInterval
)

// Environment variable names.
const (
	EnvAlchemyKey = "ALCHEMY_API_KEY"
	EnvMnemonic   = "MNEMONIC"
	EnvPassphrase = "MNEMONIC_PASSPHRASE"
	EnvHDPath     = "W3INVOKE_HD_PATH"
)

// Config is the optional on-disk configuration. Every field has a usable
// zero value, so a missing file is not an error.
type Config struct {
	DefaultNetwork string            `yaml:"default_network,omitempty"`
	ConfirmTimeout time.Duration     `yaml:"confirm_timeout,omitempty"`
	PollInterval   time.Duration     `yaml:"poll_interval,omitempty"`
	StrictBool     bool              `yaml:"strict_bool,omitempty"`
	HDPath         string            `yaml:"hd_path,omitempty"`
	RPCOverrides   map[string]string `yaml:"rpc_overrides,omitempty"`

	dir string
}

// DefaultDir returns ~/.w3invoke.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", clierr.Wrap(clierr.CodeConfiguration, "could not determine home dir", err)
	}
	return filepath.Join(home, dirName), nil
}

// Load reads config.yaml from dir. dir defaults to ~/.w3invoke. Nothing is
// created on disk.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfiguration, "reading config", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, clierr.Wrap(clierr.CodeConfiguration, "parsing "+configFile, err)
	}
	cfg.dir = dir
	if cfg.HDPath == "" {
		cfg.HDPath = DefaultHDPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ConfirmTimeout < 0 {
		return nil, clierr.Newf(clierr.CodeConfiguration, "confirm_timeout must not be negative, got %s", cfg.ConfirmTimeout)
	}
	return cfg, nil
}

// Dir returns the config directory. The file keychain lives beneath it.
func (c *Config) Dir() string {
	return c.dir
}

// RPCOverride returns the configured endpoint for network, if any.
func (c *Config) RPCOverride(network string) string {
	return c.RPCOverrides[strings.ToLower(network)]
}

func defaults(dir string) *Config {
	return &Config{
		HDPath:       DefaultHDPath,
		PollInterval: DefaultPollInterval,
		RPCOverrides: map[string]string{},
		dir:          dir,
	}
}
