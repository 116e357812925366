package wallet

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// DefaultHDPath is the first account on the standard Ethereum BIP-44 path.
const DefaultHDPath = "m/44'/60'/0'/0/0"

// Signer signs EVM transactions with a key derived from a BIP-39 mnemonic.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewMnemonicSigner derives the signing key at path (DefaultHDPath when empty).
func NewMnemonicSigner(mnemonic, passphrase, path string) (*Signer, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, clierr.New(clierr.CodeConfiguration, "MNEMONIC is not a valid BIP-39 phrase")
	}
	if path == "" {
		path = DefaultHDPath
	}
	dp, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfiguration, "invalid HD path "+path, err)
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfiguration, "deriving master key", err)
	}
	for _, idx := range dp {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeConfiguration, "deriving child key", err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeConfiguration, "extracting private key", err)
	}
	return NewKeySigner(priv.ToECDSA()), nil
}

// NewKeySigner wraps an existing private key.
func NewKeySigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// Address returns the signing account.
func (s *Signer) Address() common.Address { return s.address }

// SignTx signs tx for chainID with the latest signer the chain supports.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
