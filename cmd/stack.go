package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/aggregate"
	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/chain"
	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/orchestrate"
	"github.com/Mohsinsiddi/w3fund/internal/rpc"
	"github.com/Mohsinsiddi/w3fund/internal/session"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
	"github.com/Mohsinsiddi/w3fund/internal/units"
	"github.com/Mohsinsiddi/w3fund/internal/wallet"
)

// stack is everything a command needs to reach the contracts: a node, the
// local wallets exposed through a provider, and a session manager on top.
type stack struct {
	chain    *chain.Chain // nil for networks outside the registry
	node     *chain.EVMClient
	wallets  *wallet.Manager
	provider *wallet.Provider
	sessions *session.Manager
	hint     *wallet.HintFile
	prompter *ui.Prompter
}

func newWalletManager() *wallet.Manager {
	keys := wallet.DefaultKeystore(cfg.KeyringDir(), keyringPassphrase)
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeys(keys),
	)
}

// keyringPassphrase unlocks the file keyring used when no OS keychain is
// reachable.
func keyringPassphrase(prompt string) (string, error) {
	return ui.Stdio().Secret(prompt)
}

// networkChain returns the registry entry for the configured network.
func networkChain() *chain.Chain {
	c, err := chain.NewRegistry().GetByName(cfg.Network)
	if err != nil {
		return nil
	}
	return c
}

// endpoints lists the RPC URLs to choose from: --rpc, then the configured
// list, then the registry defaults for the network.
func endpoints() []string {
	if rpcFlag != "" {
		return []string{rpcFlag}
	}
	if len(cfg.RPCs) > 0 {
		return cfg.RPCs
	}
	if c := networkChain(); c != nil {
		return c.RPCs
	}
	return nil
}

func dialNode(ctx context.Context) (*chain.EVMClient, error) {
	urls := endpoints()
	if len(urls) == 0 {
		return nil, apperr.Validation("no RPC endpoint for network %q; add one with `w3fund rpc add <url>`", cfg.Network)
	}
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := rpc.SelectBest(sctx, urls, algo)
	if err != nil {
		return nil, fmt.Errorf("selecting RPC endpoint: %w", err)
	}
	logger.Debug("rpc selected", zap.String("url", url), zap.String("algorithm", string(algo)))
	return chain.NewEVMClient(url,
		chain.WithPollInterval(cfg.PollInterval()),
		chain.WithLogger(logger.Named("chain")),
	), nil
}

func newStack(ctx context.Context) (*stack, error) {
	node, err := dialNode(ctx)
	if err != nil {
		return nil, err
	}
	s := &stack{
		chain:    networkChain(),
		node:     node,
		wallets:  newWalletManager(),
		hint:     wallet.NewHintFile(cfg.HintPath()),
		prompter: ui.Stdio(),
	}

	opts := []wallet.ProviderOption{
		wallet.WithGrants(wallet.NewGrants(cfg.GrantsPath())),
		wallet.WithProviderLogger(logger),
	}
	if !assumeYes {
		opts = append(opts,
			wallet.WithAccessPrompt(s.askAccess),
			wallet.WithTxPrompt(s.askTx),
		)
	}
	s.provider = wallet.NewProvider(node, s.wallets, opts...)
	s.sessions = session.NewManager(s.provider, big.NewInt(cfg.ChainID),
		session.WithHint(s.hint),
		session.WithLogger(logger),
	)
	return s, nil
}

// connect builds the stack and opens a session in one step.
func connect(ctx context.Context) (*stack, *session.Connection, error) {
	s, err := newStack(ctx)
	if err != nil {
		return nil, nil, err
	}
	conn, err := s.sessions.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, conn, nil
}

func (s *stack) askAccess(w *wallet.Wallet) (bool, error) {
	fmt.Fprintln(os.Stderr, ui.Info(fmt.Sprintf("w3fund is requesting access to wallet %q (%s).", w.Name, w.Address)))
	return s.prompter.Confirm("Allow?"), nil
}

func (s *stack) askTx(w *wallet.Wallet, msg chain.CallMsg, gas uint64) (bool, error) {
	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	pairs := [][2]string{
		{"From", fmt.Sprintf("%s (%s)", w.Name, ui.TruncateAddr(w.Address))},
		{"To", msg.To.Hex()},
	}
	if name := methodName(msg.Data); name != "" {
		pairs = append(pairs, [2]string{"Method", name})
	}
	pairs = append(pairs,
		[2]string{"Value", units.FormatEther(value) + " ETH"},
		[2]string{"Gas limit", strconv.FormatUint(gas, 10)},
	)
	fmt.Fprintln(os.Stderr, ui.KeyValueBlock("Transaction", pairs))
	return s.prompter.Confirm("Sign and send?"), nil
}

// methodName resolves calldata against the built-in interfaces.
func methodName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	for _, def := range contract.AllBuiltins() {
		if m, err := def.ABI.MethodById(data[:4]); err == nil {
			return def.ID + "." + m.Name
		}
	}
	return ""
}

// txURL links hash on the network's explorer, "" without one.
func (s *stack) txURL(hash string) string {
	if s.chain == nil {
		return ""
	}
	return s.chain.TxURL(hash)
}

func (s *stack) orchestrator() *orchestrate.Orchestrator {
	progress := ui.NewProgress(os.Stdout, s.txURL)
	return orchestrate.New(
		orchestrate.WithReporter(progress.Report),
		orchestrate.WithLogger(logger),
	)
}

func newAggregator() *aggregate.Aggregator {
	return aggregate.New(aggregate.WithLogger(logger))
}

// requireAddress returns the configured contract address under key. A
// missing one is a validation failure raised before any network traffic.
func requireAddress(key string) (common.Address, error) {
	v, err := cfg.Get(key)
	if err != nil {
		return common.Address{}, err
	}
	if v == "" {
		return common.Address{}, apperr.Validation(
			"%s is not configured; run `w3fund config import <deployment>` or `w3fund config set %s <address>`", key, key)
	}
	return common.HexToAddress(v), nil
}

// parseAddressArg validates a user-supplied contract address.
func parseAddressArg(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, apperr.Validation("%q is not an address", s)
	}
	return common.HexToAddress(s), nil
}
