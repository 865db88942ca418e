package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3fund/internal/aggregate"
	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/config"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/ui"
	"github.com/Mohsinsiddi/w3fund/internal/units"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Spend GAME tokens in the item store",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List store items with current prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, token, store, err := storeContracts(cmd.Context())
		if err != nil {
			return err
		}
		spin := ui.NewSpinner("Quoting prices...")
		spin.Start()
		items, symbol, err := quoteCatalog(cmd.Context(), token, store)
		spin.Stop()
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 4, Right: true},
			{Title: "Item", Width: 18},
			{Title: "Base", Width: 10, Right: true},
			{Title: "Price (" + symbol + ")", Width: 16, Right: true},
		})
		for _, it := range items {
			t.AddRow(ui.Row{strconv.FormatUint(it.ID, 10), it.Name, it.Base, ui.Val(it.PriceFormatted())})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta("Prices are quotes; w3fund quotes again right before you buy."))
		return nil
	},
}

var storeBuyCmd = &cobra.Command{
	Use:   "buy [item-id]",
	Short: "Buy an item: approve the quoted GAME, then purchase",
	Long: `Buy an item. The price is quoted, the store is approved to spend exactly
that amount of GAME, and the purchase is sent only once the approval is
confirmed. Without an item id, pick from the catalog.

If the purchase fails after the approval confirmed, the approval is not
revoked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var item aggregate.StoreItem
		if len(args) == 1 {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return apperr.Validation("item id must be a positive integer, got %q", args[0])
			}
			it, ok := aggregate.FindItem(id)
			if !ok {
				return apperr.Validation("no store item with id %d; see `w3fund store list`", id)
			}
			item = it
		}

		s, token, store, err := storeContracts(cmd.Context())
		if err != nil {
			return err
		}
		if item.ID == 0 {
			picked, ok, err := pickStoreItem(cmd.Context(), token, store)
			if err != nil || !ok {
				return err
			}
			item = picked
		}

		decimals, err := token.Decimals(cmd.Context())
		if err != nil {
			return apperr.Normalize(err, apperr.PhaseQuote)
		}
		base, err := units.Parse(item.Base, decimals)
		if err != nil {
			return apperr.Validation("item %d base price: %v", item.ID, err)
		}

		out, err := s.orchestrator().PurchaseItem(cmd.Context(), token, store, new(big.Int).SetUint64(item.ID), base)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Bought %s for %s in block %d.",
			item.Name, formatToken(out.Quote, decimals, "GAME"), out.Last().BlockNumber)))
		return nil
	},
}

// storeContracts connects and binds the token and the store.
func storeContracts(ctx context.Context) (*stack, *contract.Token, *contract.ItemStore, error) {
	tokenAddr, err := requireAddress("token_address")
	if err != nil {
		return nil, nil, nil, err
	}
	storeAddr, err := requireAddress("store_address")
	if err != nil {
		return nil, nil, nil, err
	}
	s, conn, err := connect(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, contract.NewToken(tokenAddr, conn), contract.NewStore(storeAddr, conn), nil
}

func quoteCatalog(ctx context.Context, token *contract.Token, store *contract.ItemStore) ([]aggregate.PricedItem, string, error) {
	rctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
	defer cancel()
	decimals, err := token.Decimals(rctx)
	if err != nil {
		return nil, "", apperr.Normalize(err, apperr.PhasePricing)
	}
	symbol, err := token.Symbol(rctx)
	if err != nil {
		return nil, "", apperr.Normalize(err, apperr.PhasePricing)
	}
	items, err := newAggregator().PriceCatalog(rctx, store, decimals)
	return items, symbol, err
}

// pickStoreItem quotes the catalog and lets the user choose. ok is false
// when the user cancels.
func pickStoreItem(ctx context.Context, token *contract.Token, store *contract.ItemStore) (aggregate.StoreItem, bool, error) {
	spin := ui.NewSpinner("Quoting prices...")
	spin.Start()
	items, symbol, err := quoteCatalog(ctx, token, store)
	spin.Stop()
	if err != nil {
		return aggregate.StoreItem{}, false, err
	}

	choices := make([]ui.PickerItem, len(items))
	for i, it := range items {
		choices[i] = ui.PickerItem{
			Label:    it.Name,
			SubLabel: it.PriceFormatted() + " " + symbol,
			Value:    strconv.FormatUint(it.ID, 10),
		}
	}
	picked, err := ui.PickItem("Buy which item?", choices)
	if err != nil {
		return aggregate.StoreItem{}, false, err
	}
	if picked == "" {
		fmt.Println(ui.Meta("Cancelled."))
		return aggregate.StoreItem{}, false, nil
	}
	id, _ := strconv.ParseUint(picked, 10, 64)
	it, ok := aggregate.FindItem(id)
	return it, ok, nil
}

func formatToken(v *big.Int, decimals uint8, symbol string) string {
	return units.Format(v, decimals) + " " + symbol
}

func init() {
	storeCmd.AddCommand(storeListCmd, storeBuyCmd)
}
