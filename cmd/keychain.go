package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3invoke/internal/ui"
	"github.com/Mohsinsiddi/w3invoke/internal/wallet"
)

func newKeychainCmd(a *app) *cobra.Command {
	kc := &cobra.Command{
		Use:   "keychain",
		Short: "Manage the mnemonic stored in the OS keychain",
		Long: `Store the signing mnemonic in the OS keychain so MNEMONIC does not
have to be exported. MNEMONIC still wins when it is set.

On Linux without a secret service the keychain falls back to an encrypted
file under the config directory, unlocked with W3INVOKE_KEYCHAIN_PASSWORD.`,
	}

	kc.AddCommand(&cobra.Command{
		Use:   "set-mnemonic",
		Short: "Save a BIP-39 mnemonic (read without echo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := a.console()
			var phrase string
			var err error
			if a.stdinFd >= 0 && ui.IsTerminal(a.stdinFd) {
				phrase, err = ui.ReadSecret(a.stdinFd, a.stderr, "Enter mnemonic:")
			} else {
				phrase, err = ui.NewLinePrompter(a.stdin, a.stderr).Ask("Enter mnemonic:")
			}
			if err != nil {
				return err
			}

			signer, err := wallet.NewMnemonicSigner(phrase, a.env().Passphrase(), a.env().HDPath(a.cfg))
			if err != nil {
				return err
			}
			store, err := a.openKeychain(a.cfg.Dir())
			if err != nil {
				return err
			}
			if err := store.StoreMnemonic(phrase); err != nil {
				return err
			}
			console.Success("Mnemonic stored. Signing address: %s", ui.Addr(signer.Address().Hex()))
			return nil
		},
	})

	kc.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openKeychain(a.cfg.Dir())
			if err != nil {
				return err
			}
			if err := store.DeleteMnemonic(); err != nil {
				return err
			}
			a.console().Success("Stored mnemonic removed.")
			return nil
		},
	})
	return kc
}
