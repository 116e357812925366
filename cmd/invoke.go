package cmd

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3invoke/internal/allowance"
	"github.com/Mohsinsiddi/w3invoke/internal/chain"
	"github.com/Mohsinsiddi/w3invoke/internal/codec"
	"github.com/Mohsinsiddi/w3invoke/internal/contract"
	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
	"github.com/Mohsinsiddi/w3invoke/internal/execution"
	"github.com/Mohsinsiddi/w3invoke/internal/selector"
	"github.com/Mohsinsiddi/w3invoke/internal/ui"
	"github.com/Mohsinsiddi/w3invoke/internal/wallet"
)

// keychainSource opens the keychain only when it is actually consulted.
type keychainSource struct{ a *app }

func (k keychainSource) Mnemonic() (string, error) {
	kc, err := k.a.openKeychain(k.a.cfg.Dir())
	if err != nil {
		return "", err
	}
	return kc.Mnemonic()
}

func (a *app) invoke(ctx context.Context, args []string) error {
	networkName, contractArg, abiSource := args[0], strings.TrimSpace(args[1]), args[2]
	var functionName string
	if len(args) > 3 {
		functionName = args[3]
	}
	if networkName == "" {
		networkName = a.cfg.DefaultNetwork
	}

	network, err := chain.NewRegistry().GetByName(networkName)
	if err != nil {
		return err
	}
	if !common.IsHexAddress(contractArg) {
		return clierr.Newf(clierr.CodeUsage, "invalid contract address %q", contractArg)
	}
	contractAddr := common.HexToAddress(contractArg)

	// Credentials are checked before anything touches the network.
	env := a.env()
	endpoint, err := network.Endpoint(env.AlchemyKey(), env.RPCOverride(a.cfg, network.Name, network.RPCEnv()))
	if err != nil {
		return err
	}
	mnemonic, err := wallet.ResolveMnemonic(env.Mnemonic(), keychainSource{a})
	if err != nil {
		return err
	}
	signer, err := wallet.NewMnemonicSigner(mnemonic, env.Passphrase(), env.HDPath(a.cfg))
	if err != nil {
		return err
	}

	abi, err := contract.LoadSource(abiSource)
	if err != nil {
		return err
	}

	console := a.console()
	client, err := a.dial(ctx, endpoint)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.VerifyChainID(ctx, network.ChainID); err != nil {
		return err
	}
	console.Info("Connected to %s", network.DisplayName)
	console.Info("Using wallet address: %s", ui.Addr(signer.Address().Hex()))
	a.log.Debug("connected", zap.String("network", network.Name), zap.Int64("chain_id", network.ChainID))

	prompter := ui.NewLinePrompter(a.stdin, a.stderr)
	c := codec.Codec{StrictBool: a.cfg.StrictBool}
	sel := &selector.Selector{Prompter: prompter, Console: console, Codec: c, Log: a.log}
	if a.flags.pick {
		sel.Pick = a.pick
	}

	fn, err := sel.Resolve(abi, functionName)
	if err != nil {
		return err
	}
	console.Info("Function: %s", fn.Name)
	console.Info("Parameters: %d", len(fn.Inputs))

	fnArgs, err := sel.CollectArguments(fn)
	if err != nil {
		return err
	}
	value, err := sel.CollectValue(fn)
	if err != nil {
		return err
	}

	chainID := big.NewInt(network.ChainID)
	wait := chain.WaitOptions{PollInterval: a.cfg.PollInterval, Timeout: a.cfg.ConfirmTimeout}
	engine := &execution.Engine{
		Backend: client,
		Signer:  signer,
		ChainID: chainID,
		Network: network,
		Codec:   c,
		Allowance: &allowance.Resolver{
			Backend:  client,
			Signer:   signer,
			ChainID:  chainID,
			Prompter: prompter,
			Console:  console,
			Wait:     wait,
			Log:      a.log,
		},
		Prompter: prompter,
		Console:  console,
		Wait:     wait,
		Log:      a.log,
	}

	outcome, err := engine.Execute(ctx, execution.Request{Fn: fn, Args: fnArgs, Contract: contractAddr, Value: value})
	if err != nil {
		return err
	}
	a.log.Debug("invocation finished", zap.Stringer("outcome", outcome))

	switch outcome.Kind {
	case execution.Submitted:
		console.Result(outcome.TxHash.Hex())
	case execution.Called:
		for i, r := range outcome.Result {
			if len(outcome.Result) > 1 {
				console.Info("Result %d:", i)
			}
			console.Result(r)
		}
	}
	return nil
}
