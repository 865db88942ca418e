package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/chain"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Interactive setup wizard",
	Long:        "Pick the network and RPC strategy, then import the deployment manifest with the contract addresses.",
	Annotations: map[string]string{skipValidation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner())

		var names []string
		for _, c := range chain.NewRegistry().All() {
			names = append(names, c.Name)
		}
		result, err := ui.RunWizard(names)
		if err != nil {
			return err
		}
		if result.Cancelled {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		if result.Network != "" {
			if err := cfg.Set("network", result.Network); err != nil {
				return err
			}
			if c, err := chain.NewRegistry().GetByName(result.Network); err == nil {
				cfg.ChainID = c.ChainID
			}
		}
		if result.RPCAlgorithm != "" {
			if err := cfg.Set("rpc_algorithm", result.RPCAlgorithm); err != nil {
				return err
			}
		}
		if result.ManifestPath != "" {
			d, err := importDeployment(cmd.Context(), result.ManifestPath)
			if err != nil {
				return err
			}
			printDeployment(d)
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.Success("w3fund configured for " + ui.ChainName(cfg.Network) + "."))
		if missing := cfg.Missing(); len(missing) > 0 {
			fmt.Println(ui.Warn(fmt.Sprintf("Still missing: %v", missing)))
			fmt.Println(ui.Hint("Import them with: w3fund config import <deployment.yaml>"))
		}
		fmt.Println(ui.Hint("Next: w3fund wallet import <name>, then w3fund connect"))
		return nil
	},
}
