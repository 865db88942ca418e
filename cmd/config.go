package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show and change settings",
	Annotations: map[string]string{skipValidation: "true"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := make([][2]string, 0, len(config.Keys)+2)
		for _, k := range config.Keys {
			v, err := cfg.Get(k)
			if err != nil {
				return err
			}
			if v == "" {
				v = "(not set)"
			}
			pairs = append(pairs, [2]string{k, v})
		}
		rpcs := "(network defaults)"
		if len(cfg.RPCs) > 0 {
			rpcs = strings.Join(cfg.RPCs, ", ")
		}
		pairs = append(pairs, [2]string{"rpcs", rpcs})

		fmt.Println(ui.KeyValueBlock("w3fund configuration", pairs))
		fmt.Println(ui.Meta("Config dir: " + cfg.Dir()))
		if err := cfg.Validate(); err != nil {
			fmt.Println(ui.Warn(err.Error()))
		}
		if missing := cfg.Missing(); len(missing) > 0 {
			fmt.Println(ui.Hint("Set contract addresses with: w3fund config import <deployment.yaml>"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Keys: " + strings.Join(config.Keys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		got, _ := cfg.Get(key)
		fmt.Println(ui.Success(fmt.Sprintf("%s = %s", key, ui.Val(got))))
		return nil
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import <file|url>",
	Short: "Import contract addresses from a deployment manifest",
	Long: `Import contract addresses from a deployment manifest.

Accepts YAML or JSON with token/factory/store address keys (chain_id,
network and rpcs are optional), or the plain "GAME: 0x..." lines printed by
the deploy script. An http(s) URL is fetched instead of read from disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := importDeployment(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("imported deployment is invalid: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		printDeployment(d)
		fmt.Println(ui.Success("Deployment imported."))
		return nil
	},
}

func importDeployment(ctx context.Context, src string) (*config.Deployment, error) {
	if config.IsManifestURL(src) {
		return cfg.ImportURL(ctx, nil, src)
	}
	return cfg.Import(src)
}

func printDeployment(d *config.Deployment) {
	var pairs [][2]string
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, [2]string{k, v})
		}
	}
	add("network", d.Network)
	if d.ChainID != 0 {
		add("chain_id", fmt.Sprint(d.ChainID))
	}
	add("token_address", d.TokenAddress)
	add("factory_address", d.FactoryAddress)
	add("store_address", d.StoreAddress)
	add("rpcs", strings.Join(d.RPCs, ", "))
	fmt.Println(ui.KeyValueBlock("Deployment", pairs))
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configImportCmd)
}
