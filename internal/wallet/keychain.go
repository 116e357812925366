package wallet

import (
	"errors"
	"os"
	"runtime"

	"github.com/99designs/keyring"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

const (
	keychainService = "w3invoke"
	mnemonicKey     = "w3invoke.mnemonic"
)

// Keychain keeps the operator's mnemonic in the OS keychain so it does not
// have to live in the environment.
type Keychain struct {
	ring keyring.Keyring
}

// NewKeychain wraps an opened keyring.
func NewKeychain(ring keyring.Keyring) *Keychain {
	return &Keychain{ring: ring}
}

// OpenKeychain opens the OS keychain, falling back to an encrypted file
// under dir on headless Linux.
func OpenKeychain(dir string) (*Keychain, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         filePassword,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfiguration, "opening keychain", err)
	}
	return &Keychain{ring: ring}, nil
}

// filePassword reads the file backend password from W3INVOKE_KEYCHAIN_PASSWORD.
func filePassword(string) (string, error) {
	if pw := os.Getenv("W3INVOKE_KEYCHAIN_PASSWORD"); pw != "" {
		return pw, nil
	}
	return "", errors.New("W3INVOKE_KEYCHAIN_PASSWORD is required for the file keychain")
}

// Mnemonic returns the stored phrase, or "" when none is stored.
func (k *Keychain) Mnemonic() (string, error) {
	item, err := k.ring.Get(mnemonicKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", clierr.Wrap(clierr.CodeConfiguration, "reading mnemonic from keychain", err)
	}
	return string(item.Data), nil
}

// StoreMnemonic validates and saves a phrase, replacing any previous one.
func (k *Keychain) StoreMnemonic(mnemonic string) error {
	if _, err := NewMnemonicSigner(mnemonic, "", ""); err != nil {
		return err
	}
	err := k.ring.Set(keyring.Item{
		Key:         mnemonicKey,
		Data:        []byte(mnemonic),
		Label:       "w3invoke signing mnemonic",
		Description: "BIP-39 phrase used to sign contract transactions",
	})
	if err != nil {
		return clierr.Wrap(clierr.CodeConfiguration, "writing mnemonic to keychain", err)
	}
	return nil
}

// DeleteMnemonic removes the stored phrase. Removing a missing phrase is not an error.
func (k *Keychain) DeleteMnemonic() error {
	err := k.ring.Remove(mnemonicKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return clierr.Wrap(clierr.CodeConfiguration, "removing mnemonic from keychain", err)
	}
	return nil
}

// MnemonicSource is anywhere a stored mnemonic can come from.
type MnemonicSource interface {
	Mnemonic() (string, error)
}

// ResolveMnemonic prefers the MNEMONIC environment value and falls back to
// the keychain. A missing phrase is a configuration error.
func ResolveMnemonic(env string, src MnemonicSource) (string, error) {
	if env != "" {
		return env, nil
	}
	if src != nil {
		m, err := src.Mnemonic()
		if err != nil {
			return "", err
		}
		if m != "" {
			return m, nil
		}
	}
	return "", clierr.New(clierr.CodeConfiguration, "MNEMONIC is not set (export it or run `w3invoke keychain set-mnemonic`)")
}
