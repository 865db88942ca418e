package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/aggregate"
	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/orchestrate"
	"github.com/Mohsinsiddi/w3fund/internal/session"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
)

var (
	campaignLive   bool
	campaignTitle  string
	campaignGoal   string
	campaignDays   string
	campaignAmount string
)

var campaignCmd = &cobra.Command{
	Use:     "campaign",
	Aliases: []string{"campaigns"},
	Short:   "Browse, create and fund crowdfunding campaigns",
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every campaign the factory has deployed",
	Long: `List every campaign with its goal, amount raised and time left.

With --live the list stays open, refetching every refresh_interval seconds
while the countdowns tick each second. Press r to refresh, q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		factoryAddr, err := requireAddress("factory_address")
		if err != nil {
			return err
		}
		_, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		fetch := campaignFetcher(cmd.Context(), factoryAddr, conn)

		if campaignLive {
			_, err := ui.NewBoard(cfg.Refresh(), fetch).Run()
			return err
		}

		spin := ui.NewSpinner("Reading campaigns...")
		spin.Start()
		views, err := fetch()
		spin.Stop()
		if err != nil {
			return err
		}
		if len(views) == 0 {
			fmt.Println(ui.Info("No campaigns yet."))
			fmt.Println(ui.Hint("Start one with: w3fund campaign create"))
			return nil
		}
		fmt.Println(ui.CampaignTable(views, time.Now()).Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d campaign(s) on %s", len(views), cfg.Network)))
		return nil
	},
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a new campaign",
	Long: `Launch a new campaign through the factory.

Missing values are asked for interactively. --days may be fractional; the
duration is rounded down to whole seconds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.Stdio()
		title, goal, days := campaignTitle, campaignGoal, campaignDays
		if title == "" {
			title = p.Ask("Title", "")
		}
		if goal == "" {
			goal = p.Ask("Goal (ETH)", "")
		}
		if days == "" {
			days = p.Ask("Duration (days)", "30")
		}
		if _, err := orchestrate.ValidateCampaign(title, goal, days); err != nil {
			return err
		}

		factoryAddr, err := requireAddress("factory_address")
		if err != nil {
			return err
		}
		s, conn, err := connect(cmd.Context())
		if err != nil {
			return err
		}

		out, err := s.orchestrator().CreateCampaign(cmd.Context(), contract.NewFactory(factoryAddr, conn), title, goal, days)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Campaign %q created in block %d.", title, out.Last().BlockNumber)))
		fmt.Println(ui.Hint("See it with: w3fund campaign list"))
		return nil
	},
}

var campaignContributeCmd = &cobra.Command{
	Use:   "contribute [campaign-address]",
	Short: "Send ETH to a campaign",
	Long: `Send ETH to a campaign. Without an address, pick one of the open
campaigns from a list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := campaignAmount
		if amount == "" {
			amount = ui.Stdio().Ask("Amount (ETH)", "")
		}
		if _, err := orchestrate.ValidateAmount(amount); err != nil {
			return err
		}

		s, conn, addr, err := resolveCampaign(cmd.Context(), args, "Contribute to which campaign?", func(v aggregate.CampaignView) bool {
			return !v.Ended()
		})
		if err != nil || s == nil {
			return err
		}

		out, err := s.orchestrator().Contribute(cmd.Context(), contract.NewCampaign(addr, conn), amount)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Contributed %s ETH in block %d.", amount, out.Last().BlockNumber)))
		return nil
	},
}

var campaignFinalizeCmd = &cobra.Command{
	Use:   "finalize [campaign-address]",
	Short: "Close a campaign after its deadline",
	Long: `Close a campaign. Only the owner may finalize, and only once the deadline
has passed; the contract enforces both.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, conn, addr, err := resolveCampaign(cmd.Context(), args, "Finalize which campaign?", func(v aggregate.CampaignView) bool {
			return v.Ended()
		})
		if err != nil || s == nil {
			return err
		}

		out, err := s.orchestrator().Finalize(cmd.Context(), contract.NewCampaign(addr, conn))
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Campaign %s finalized in block %d.", ui.Addr(addr.Hex()), out.Last().BlockNumber)))
		return nil
	},
}

func campaignFetcher(ctx context.Context, factoryAddr common.Address, conn *session.Connection) ui.BoardFetcher {
	agg := newAggregator()
	factory := contract.NewFactory(factoryAddr, conn)
	return func() ([]aggregate.CampaignView, error) {
		rctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
		defer cancel()
		return agg.ListCampaigns(rctx, factory)
	}
}

// resolveCampaign connects and returns the campaign named in args, or lets
// the user pick one of the campaigns for which selectable is true. A nil
// stack with no error means the user cancelled.
func resolveCampaign(ctx context.Context, args []string, title string, selectable func(aggregate.CampaignView) bool) (*stack, *session.Connection, common.Address, error) {
	if len(args) == 1 {
		addr, err := parseAddressArg(args[0])
		if err != nil {
			return nil, nil, common.Address{}, err
		}
		s, conn, err := connect(ctx)
		return s, conn, addr, err
	}

	factoryAddr, err := requireAddress("factory_address")
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	s, conn, err := connect(ctx)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	spin := ui.NewSpinner("Reading campaigns...")
	spin.Start()
	views, err := campaignFetcher(ctx, factoryAddr, conn)()
	spin.Stop()
	if err != nil {
		return nil, nil, common.Address{}, err
	}

	items := make([]ui.PickerItem, len(views))
	for i, v := range views {
		items[i] = ui.PickerItem{
			Label:    v.Title,
			SubLabel: fmt.Sprintf("%s  %s / %s ETH  %s", ui.TruncateAddr(v.Address.Hex()), v.RaisedETH(), v.GoalETH(), v.Countdown),
			Value:    v.Address.Hex(),
			Disabled: !selectable(v),
		}
	}
	picked, err := ui.PickItem(title, items)
	if err != nil {
		return nil, nil, common.Address{}, err
	}
	if picked == "" {
		fmt.Println(ui.Meta("Cancelled."))
		return nil, nil, common.Address{}, nil
	}
	return s, conn, common.HexToAddress(picked), nil
}

func init() {
	campaignListCmd.Flags().BoolVar(&campaignLive, "live", false, "keep the list open and refresh it")
	campaignCreateCmd.Flags().StringVar(&campaignTitle, "title", "", "campaign title")
	campaignCreateCmd.Flags().StringVar(&campaignGoal, "goal", "", "funding goal in ETH")
	campaignCreateCmd.Flags().StringVar(&campaignDays, "days", "", "duration in days (fractional allowed)")
	campaignContributeCmd.Flags().StringVar(&campaignAmount, "amount", "", "amount to send in ETH")

	campaignCmd.AddCommand(
		campaignListCmd,
		campaignCreateCmd,
		campaignContributeCmd,
		campaignFinalizeCmd,
	)
}
