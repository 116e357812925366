package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	"github.com/Mohsinsiddi/w3invoke/internal/config"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/logging"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
	"github.com/Mohsinsiddi/w3invoke/internal/wallet"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3invoke/cmd.Version=1.2.3" .
var Version = "0.1.0"

// node is a dialed network connection.
type node interface {
	chain.Backend
	VerifyChainID(ctx context.Context, want int64) error
	Close()
}

// keychainStore is the stored-mnemonic surface the commands use.
type keychainStore interface {
	Mnemonic() (string, error)
	StoreMnemonic(mnemonic string) error
	DeleteMnemonic() error
}

// app holds the process surroundings so commands can run against fakes.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// animate enables the spinner; only set when stderr is a terminal.
	animate bool
	// stdinFd is used for hidden input; -1 when stdin is not a file.
	stdinFd int

	dial         func(ctx context.Context, url string) (node, error)
	openKeychain func(dir string) (keychainStore, error)
	pick         func(title string, items []ui.PickerItem) (int, error)

	flags struct {
		configDir      string
		verbose        bool
		logFile        string
		strictBool     bool
		pick           bool
		confirmTimeout time.Duration
	}

	cfg *config.Config
	log *zap.Logger
}

func defaultApp() *app {
	return &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
		animate: ui.IsTerminal(int(os.Stderr.Fd())),
		stdinFd: int(os.Stdin.Fd()),
		dial: func(ctx context.Context, url string) (node, error) {
			return chain.Dial(ctx, url)
		},
		openKeychain: func(dir string) (keychainStore, error) {
			return wallet.OpenKeychain(dir)
		},
		pick: ui.PickIndex,
	}
}

func (a *app) console() *ui.Console {
	return ui.NewConsole(a.stderr, a.stdout, a.animate)
}

func (a *app) env() config.Env {
	return config.Env{Getenv: a.getenv}
}

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "w3invoke <network> <contract-address> <abi-file-or-empty> [function-name]",
		Short: "Invoke any smart-contract function from the terminal",
		Long: `w3invoke calls or transacts against a contract on an EVM network,
asking for each parameter interactively.

The ABI argument is a JSON file (raw ABI or Hardhat/Foundry artifact),
builtin:<id> for a bundled ABI, or "" to type a function signature.
The function name selects a function directly; otherwise a menu is shown.

Environment:
  ALCHEMY_API_KEY       Alchemy key used to build RPC endpoints
  <NETWORK>_RPC         endpoint override, e.g. BASE_RPC
  MNEMONIC              BIP-39 phrase for the signing account
  MNEMONIC_PASSPHRASE   optional BIP-39 passphrase
  W3INVOKE_HD_PATH      derivation path (default m/44'/60'/0'/0/0)

Examples:
  w3invoke base 0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913 builtin:erc20 transfer
  w3invoke ethereum 0xA0b8...eB48 ./abi/Vault.json
  w3invoke avalanche 0xB97E...8a6E "" "balanceOf(address) view returns (uint256)"`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Arguments after the function name are ignored.
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				return clierr.New(clierr.CodeUsage, "usage: w3invoke <network> <contract-address> <abi-file-or-empty> [function-name]")
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd.Context(), args)
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config", "", "config directory (default: ~/.w3invoke)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.StringVar(&a.flags.logFile, "log-file", "", "also write JSON debug logs to this file")

	f := root.Flags()
	f.BoolVar(&a.flags.strictBool, "strict-bool", false, "accept only true/false for bool parameters")
	f.BoolVar(&a.flags.pick, "pick", false, "choose the function with an interactive picker")
	f.DurationVar(&a.flags.confirmTimeout, "confirm-timeout", 0, "give up waiting for a receipt after this long (0 waits forever)")

	root.AddCommand(newNetworksCmd(a), newKeychainCmd(a))
	return root
}

// setup loads config and builds the logger. Flags win over the file.
func (a *app) setup() error {
	cfg, err := config.Load(a.flags.configDir)
	if err != nil {
		return err
	}
	if a.flags.strictBool {
		cfg.StrictBool = true
	}
	if a.flags.confirmTimeout > 0 {
		cfg.ConfirmTimeout = a.flags.confirmTimeout
	}
	a.cfg = cfg

	log, err := logging.New(logging.Options{
		Verbose: a.flags.verbose,
		File:    a.flags.logFile,
		Console: a.stderr,
	})
	if err != nil {
		return err
	}
	a.log = log
	a.log.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.Bool("strict_bool", cfg.StrictBool))
	return nil
}

// run executes the command line and returns the process exit code.
func run(a *app, argv []string) int {
	root := newRootCmd(a)
	root.SetArgs(argv)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		ui.NewConsole(a.stderr, a.stdout, false).Error("Error: %v", err)
	}
	return clierr.ExitCode(err)
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(defaultApp(), os.Args[1:]))
}
