// check-balances: queries the ETH balance of a set of wallets on every
// built-in network in parallel, plus their GAME balance on the configured
// network when a token address is set, and prints a summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-balances 0xabc... 0xdef...
//
// Without arguments the addresses in the w3fund wallet store are used.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/w3fund/internal/chain"
	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/units"
	"github.com/Mohsinsiddi/w3fund/internal/wallet"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	network string
	wallet  string // short form
	balance string
	symbol  string
	err     string
}

// readConn lets the token binding read through a bare client.
type readConn struct{ client *chain.EVMClient }

var errReadOnly = errors.New("check-balances is read-only")

func (c readConn) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.client.CallContract(ctx, chain.CallMsg{To: to, Data: data})
}

func (readConn) Send(context.Context, common.Address, []byte, *big.Int) (common.Hash, error) {
	return common.Hash{}, errReadOnly
}

func (c readConn) Wait(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	return c.client.WaitMined(ctx, hash)
}

func (readConn) Verify(context.Context) error { return nil }

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	addrs, err := walletAddresses(cfg, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(addrs) == 0 {
		fmt.Fprintln(os.Stderr, "no wallets: pass addresses or add one with `w3fund wallet add`")
		os.Exit(1)
	}

	var (
		mu      sync.Mutex
		results []result
		g       errgroup.Group
	)
	record := func(r result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for _, c := range chain.NewRegistry().All() {
		if len(c.RPCs) == 0 {
			continue
		}
		client := chain.NewEVMClient(c.RPCs[0]) // use first built-in RPC
		var token *contract.Token
		if c.Name == cfg.Network && cfg.TokenAddress != "" {
			token = contract.NewToken(common.HexToAddress(cfg.TokenAddress), readConn{client})
		}

		for _, addr := range addrs {
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
				defer cancel()

				r := result{network: c.Name, wallet: shortAddr(addr.Hex()), symbol: c.NativeCurrency}
				// Quick ping first: skip networks that don't respond.
				if _, _, err := client.Ping(ctx); err != nil {
					r.balance, r.err = "-", "unreachable"
					record(r)
					return nil
				}
				if bal, err := client.BalanceAt(ctx, addr); err != nil {
					r.balance, r.err = "-", shortErr(err)
				} else {
					r.balance = units.FormatEther(bal)
				}
				record(r)

				if token != nil {
					record(tokenBalance(ctx, c.Name, token, addr))
				}
				return nil
			})
		}
	}

	g.Wait() //nolint:errcheck
	printTable(results)
}

func tokenBalance(ctx context.Context, network string, token *contract.Token, addr common.Address) result {
	r := result{network: network, wallet: shortAddr(addr.Hex()), symbol: "GAME", balance: "-"}
	decimals, err := token.Decimals(ctx)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	bal, err := token.BalanceOf(ctx, addr)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	if sym, err := token.Symbol(ctx); err == nil {
		r.symbol = sym
	}
	r.balance = units.Format(bal, decimals)
	return r
}

func walletAddresses(cfg *config.Config, args []string) ([]common.Address, error) {
	var out []common.Address
	for _, a := range args {
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("not an address: %q", a)
		}
		out = append(out, common.HexToAddress(a))
	}
	if len(out) > 0 {
		return out, nil
	}
	ws, err := wallet.NewJSONStore(cfg.WalletsPath()).Load()
	if err != nil {
		return nil, err
	}
	for _, w := range ws {
		out = append(out, common.HexToAddress(w.Address))
	}
	return out, nil
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	// Sort by network → wallet → symbol.
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.network != b.network {
			return a.network < b.network
		}
		if a.wallet != b.wallet {
			return a.wallet < b.wallet
		}
		return a.symbol < b.symbol
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NETWORK\tWALLET\tBALANCE\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))

	last := ""
	for _, r := range results {
		if r.network != last {
			if last != "" {
				fmt.Fprintln(w, "\t\t\t\t") // blank separator between networks
			}
			last = r.network
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.network, r.wallet, r.balance, r.symbol, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
