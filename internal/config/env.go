package config

import "strings"

// Env is the process environment relevant to a run. Lookups go through
// Getenv so tests never touch the real environment.
type Env struct {
	Getenv func(string) string
}

// AlchemyKey returns ALCHEMY_API_KEY.
func (e Env) AlchemyKey() string { return e.get(EnvAlchemyKey) }

// Mnemonic returns MNEMONIC.
func (e Env) Mnemonic() string { return e.get(EnvMnemonic) }

// Passphrase returns MNEMONIC_PASSPHRASE.
func (e Env) Passphrase() string { return e.get(EnvPassphrase) }

// HDPath returns W3INVOKE_HD_PATH, falling back to the configured path.
func (e Env) HDPath(cfg *Config) string {
	if p := e.get(EnvHDPath); p != "" {
		return p
	}
	if cfg != nil && cfg.HDPath != "" {
		return cfg.HDPath
	}
	return DefaultHDPath
}

// RPCOverride returns the endpoint override for a network. The variable
// named by envName (for example BASE_RPC) wins over rpc_overrides.
func (e Env) RPCOverride(cfg *Config, network, envName string) string {
	if u := e.get(envName); u != "" {
		return u
	}
	if cfg != nil {
		return cfg.RPCOverride(network)
	}
	return ""
}

func (e Env) get(key string) string {
	if e.Getenv == nil {
		return ""
	}
	return strings.TrimSpace(e.Getenv(key))
}
