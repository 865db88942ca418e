package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/rpc"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints",
}

var rpcAddCmd = &cobra.Command{
	Use:         "add <url>",
	Short:       "Add an RPC URL for the configured network",
	Long:        "Add an RPC URL. Once any URL is configured, the built-in defaults for the network are no longer used.",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipValidation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := url.Parse(args[0])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("not an http(s) URL: %q", args[0])
		}
		if err := cfg.AddRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(cfg.Network), args[0])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:         "remove <url>",
	Short:       "Remove a configured RPC URL",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipValidation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Removed RPC " + args[0]))
		if len(cfg.RPCs) == 0 {
			fmt.Println(ui.Meta("No custom RPCs left; the network defaults apply again."))
		}
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the RPC URLs w3fund chooses from",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s (%s)", cfg.Network, cfg.RPCAlgorithm)))
		if len(cfg.RPCs) > 0 {
			for _, r := range cfg.RPCs {
				fmt.Printf("  %s %s\n", ui.Meta("(custom) "), r)
			}
			return nil
		}
		c := networkChain()
		if c == nil {
			fmt.Println(ui.Warn(fmt.Sprintf("%q is not a built-in network and has no RPCs configured.", cfg.Network)))
			fmt.Println(ui.Hint("Add one with: w3fund rpc add <url>"))
			return nil
		}
		for _, r := range c.RPCs {
			fmt.Printf("  %s %s\n", ui.Meta("(default)"), r)
		}
		return nil
	},
}

var rpcBenchCmd = &cobra.Command{
	Use:     "bench",
	Aliases: []string{"benchmark"},
	Short:   "Benchmark the RPC URLs and show which one would be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := endpoints()
		if len(urls) == 0 {
			return fmt.Errorf("no RPC URLs for %q; add one with `w3fund rpc add <url>`", cfg.Network)
		}
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n\n", ui.StyleTitle.Render(fmt.Sprintf("Benchmarking %s RPCs...", cfg.Network)))

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()
		results := rpc.Benchmark(ctx, urls)
		picked, pickErr := rpc.Pick(algo, rpc.Endpoints(results))

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10, Right: true},
			{Title: "Block #", Width: 12, Right: true},
			{Title: "Status", Width: 12},
		})
		for _, r := range results {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			if r.Err != nil {
				status = ui.Err("down")
				latency = "-"
				block = "-"
			}
			if picked != nil && picked.URL == r.URL {
				status = ui.StyleSuccess.Render("★ selected")
			}
			t.AddRow(ui.Row{r.URL, latency, block, status})
		}
		fmt.Println(t.Render())
		if pickErr != nil {
			return pickErr
		}
		fmt.Println(ui.Meta(fmt.Sprintf("Algorithm: %s", algo)))
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcListCmd, rpcAddCmd, rpcRemoveCmd, rpcBenchCmd)
}
