package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/ens"
	"github.com/Mohsinsiddi/w3fund/internal/session"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the selected wallet on the configured network",
	Long: `Check that the RPC node is on the configured chain, then ask for access to
the selected wallet. Access is remembered until 'w3fund wallet disconnect'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Connected %s on %s (chain %s).",
			ui.Addr(conn.Address.Hex()), ui.ChainName(cfg.Network), conn.ChainID)))
		fmt.Println(ui.Meta("RPC: " + s.node.URL()))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the wallet, network and connection state",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := [][2]string{
			{"Network", fmt.Sprintf("%s (chain %d)", cfg.Network, cfg.ChainID)},
		}

		s, err := newStack(cmd.Context())
		if err != nil {
			return err
		}
		pairs = append(pairs, [2]string{"RPC", s.node.URL()})

		w, err := s.wallets.Default()
		if err != nil {
			return err
		}
		if w == nil {
			pairs = append(pairs, [2]string{"Wallet", "(none selected)"})
		} else {
			pairs = append(pairs, [2]string{"Wallet", fmt.Sprintf("%s %s [%s]", w.Name, w.Address, w.Type)})
		}
		if last := s.hint.Load(); last != "" {
			pairs = append(pairs, [2]string{"Last connected", last})
		}

		state := "not connected"
		conn, err := s.sessions.IfConnected(cmd.Context())
		switch {
		case errors.Is(err, apperr.ErrWrongNetwork):
			state = "wrong network"
			defer fmt.Println(ui.Warn(err.Error()))
		case err != nil:
			return err
		case conn != nil:
			state = "connected as " + conn.Address.Hex()
			if name := reverseName(cmd.Context(), s, conn); name != "" {
				state += " (" + name + ")"
			}
		}
		pairs = append(pairs, [2]string{"Session", state})

		for _, key := range []string{"token_address", "factory_address", "store_address"} {
			v, _ := cfg.Get(key)
			if v == "" {
				v = "(not set)"
			}
			pairs = append(pairs, [2]string{key, v})
		}
		fmt.Println(ui.KeyValueBlock("w3fund status", pairs))
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show ETH and GAME balances of the connected wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenAddr, err := requireAddress("token_address")
		if err != nil {
			return err
		}
		var spender common.Address
		if cfg.StoreAddress != "" {
			spender = common.HexToAddress(cfg.StoreAddress)
		}

		s, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
		defer cancel()

		spin := ui.NewSpinner("Reading balances...")
		spin.Start()
		b, err := newAggregator().Balances(ctx, conn, contract.NewToken(tokenAddr, conn), spender)
		spin.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Address", b.Address.Hex()},
			{"ETH", b.EtherFormatted()},
			{b.Symbol, b.TokenFormatted()},
		}
		if b.Allowance != nil {
			pairs = append(pairs, [2]string{"Store allowance", formatToken(b.Allowance, b.Decimals, b.Symbol)})
		}
		fmt.Println(ui.KeyValueBlock("Balances on "+cfg.Network, pairs))
		if s.chain != nil {
			if u := s.chain.AddressURL(b.Address.Hex()); u != "" {
				fmt.Println(ui.Meta(u))
			}
		}
		return nil
	},
}

// reverseName is best effort; most test accounts have no primary name.
func reverseName(ctx context.Context, s *stack, conn *session.Connection) string {
	rctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
	defer cancel()
	name, err := ens.ReverseLookup(rctx, s.node, conn.Address)
	if err != nil {
		logger.Debug("no reverse ENS name", zap.Error(err))
		return ""
	}
	return name
}
