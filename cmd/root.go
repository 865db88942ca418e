package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

// skipValidation marks commands that must run on a config that does not
// validate yet, so the user can repair it.
const skipValidation = "skip-validation"

var (
	cfgDir    string
	cfg       *config.Config
	logger    = zap.NewNop()
	verbose   bool
	assumeYes bool
	rpcFlag   string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3fund",
	Short: "Crowdfunding campaigns and the GAME store from your terminal",
	Long: `w3fund connects a local EVM wallet to the campaign factory and the GAME
item store.

  Browse and fund campaigns, launch your own, finalize them once the
  deadline passes, and spend GAME tokens in the store.

Every write is checked against the configured network and confirmed on chain
before w3fund moves on. Pass --yes to skip the per-transaction prompt.`,
	Version:       ui.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			l, err := newDevLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			logger = l
		}

		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if skipsValidation(cmd) {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return apperr.Validation("config %s: %v", cfg.Dir(), err)
		}
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels the running operation; a
// write already submitted stays submitted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync() //nolint:errcheck
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newDevLogger() (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	return zc.Build()
}

func skipsValidation(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipValidation] != "" {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.EnvConfigDir+" or ~/.w3fund)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "diagnostic logging to stderr")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve transactions without prompting")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "use this RPC URL instead of the configured endpoints")

	// Register all sub-commands.
	rootCmd.AddCommand(
		initCmd,
		configCmd,
		walletCmd,
		connectCmd,
		statusCmd,
		balanceCmd,
		campaignCmd,
		storeCmd,
		contractCmd,
		rpcCmd,
	)
}
