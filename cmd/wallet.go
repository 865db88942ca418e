package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/ens"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
	"github.com/Mohsinsiddi/w3fund/internal/wallet"
)

var walletDisconnectAll bool

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> <address|ens-name>",
	Short: "Add a watch-only wallet",
	Long: `Add a watch-only wallet. It can browse campaigns and balances but cannot
sign; use 'w3fund wallet import' for a wallet that sends transactions.

An ENS name such as alice.eth is resolved on the configured network.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := args[1]
		if ens.IsName(addr) {
			resolved, err := resolveENS(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Println(ui.Meta(fmt.Sprintf("%s → %s", addr, resolved)))
			addr = resolved
		}
		w, err := newWalletManager().AddWatchOnly(args[0], addr)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", w.Name, ui.Addr(w.Address))))
		printDefaultHint(w)
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a signing wallet from a private key",
	Long: `Import a signing wallet. The private key is read from the terminal without
echo (or from stdin when piped) and stored in the OS keychain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hexKey, err := ui.Stdio().Secret("Private key")
		if err != nil {
			return err
		}
		if hexKey == "" {
			return errors.New("no private key entered")
		}
		w, err := newWalletManager().Import(args[0], hexKey)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q imported: %s", w.Name, ui.Addr(w.Address))))
		printDefaultHint(w)
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a brand-new EVM keypair and store the private key in the OS keychain.

The private key is displayed ONCE immediately after creation. Fund the
address from a faucet before creating or backing campaigns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		w, err := mgr.Generate(args[0])
		if err != nil {
			return err
		}
		hexKey, err := mgr.Keys().Retrieve(w.KeyRef)
		if err != nil {
			return fmt.Errorf("reading back generated key: %w", err)
		}

		fmt.Println()
		fmt.Printf("  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Printf("  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
		fmt.Println(ui.DangerBox(
			ui.Warn("SAVE YOUR PRIVATE KEY. It is shown only once. Never share it.") + "\n\n" +
				ui.Val(hexKey),
		))
		if c := networkChain(); c != nil && c.FaucetURL != "" {
			fmt.Println(ui.Hint("Get test ETH at " + c.FaucetURL))
		}
		printDefaultHint(w)
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets, err := newWalletManager().List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Import one with: w3fund wallet import myWallet"))
			return nil
		}

		grants := wallet.NewGrants(cfg.GrantsPath())
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Access", Width: 10},
			{Title: "Default", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			access := ui.Meta("none")
			if grants.Granted(w.Address) {
				access = ui.StyleSuccess.Render("granted")
			}
			t.AddRow(ui.Row{ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(w.Type), access, def})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Select the wallet w3fund connects with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if !assumeYes && !ui.Stdio().ConfirmDanger(fmt.Sprintf("Remove wallet %q? A signing key is deleted from the keychain.", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if err := wallet.NewGrants(cfg.GrantsPath()).Revoke(w.Address); err != nil {
			return fmt.Errorf("revoking access: %w", err)
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletConnectCmd = &cobra.Command{
	Use:   "connect <name>",
	Short: "Grant w3fund access to a wallet without contacting the network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWalletManager().Get(args[0])
		if err != nil {
			return err
		}
		if err := wallet.NewGrants(cfg.GrantsPath()).Grant(w.Address); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Access granted to %q (%s).", w.Name, ui.Addr(w.Address))))
		return nil
	},
}

var walletDisconnectCmd = &cobra.Command{
	Use:   "disconnect [name]",
	Short: "Revoke w3fund's access to a wallet (default: the selected one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grants := wallet.NewGrants(cfg.GrantsPath())
		hint := wallet.NewHintFile(cfg.HintPath())
		if walletDisconnectAll {
			if err := grants.Clear(); err != nil {
				return err
			}
			if err := hint.Clear(); err != nil {
				return err
			}
			fmt.Println(ui.Success("Access revoked for every wallet."))
			return nil
		}

		mgr := newWalletManager()
		var w *wallet.Wallet
		var err error
		if len(args) == 1 {
			w, err = mgr.Get(args[0])
		} else {
			w, err = mgr.Default()
		}
		if err != nil {
			return err
		}
		if w == nil {
			return wallet.ErrNoWallet
		}
		if err := grants.Revoke(w.Address); err != nil {
			return err
		}
		if hint.Load() == w.Address {
			if err := hint.Clear(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Access revoked for %q.", w.Name)))
		return nil
	},
}

func printDefaultHint(w *wallet.Wallet) {
	if w.IsDefault {
		fmt.Println(ui.Meta("Selected as the default wallet."))
		return
	}
	fmt.Println(ui.Hint(fmt.Sprintf("Select it with: w3fund wallet use %s", w.Name)))
}

func init() {
	walletDisconnectCmd.Flags().BoolVar(&walletDisconnectAll, "all", false, "revoke access for every wallet")

	walletCmd.AddCommand(
		walletAddCmd,
		walletImportCmd,
		walletGenerateCmd,
		walletListCmd,
		walletUseCmd,
		walletRemoveCmd,
		walletConnectCmd,
		walletDisconnectCmd,
	)
}

func resolveENS(ctx context.Context, name string) (string, error) {
	node, err := dialNode(ctx)
	if err != nil {
		return "", err
	}
	rctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
	defer cancel()
	addr, err := ens.Resolve(rctx, node, name)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}
