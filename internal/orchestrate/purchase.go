package orchestrate

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
)

// PurchaseItem buys itemID from the store for baseAmount token base units.
// The price is quoted afresh, the store is approved for exactly that price,
// and only once the approval is confirmed is the purchase submitted. If the
// purchase then fails the approval is left in place and the error says so.
func (o *Orchestrator) PurchaseItem(ctx context.Context, token *contract.Token, store *contract.ItemStore, itemID, baseAmount *big.Int) (*Outcome, error) {
	if itemID == nil || itemID.Sign() <= 0 {
		return nil, apperr.Validation("item id must be positive")
	}
	if baseAmount == nil || baseAmount.Sign() <= 0 {
		return nil, apperr.Validation("base amount must be positive")
	}

	op := o.begin("purchase")

	if err := store.Conn().Verify(ctx); err != nil {
		return nil, apperr.At(err, apperr.PhaseQuote)
	}
	price, err := store.Price(ctx, baseAmount)
	if err != nil {
		return nil, apperr.At(err, apperr.PhaseQuote)
	}
	op.log.Info("price quoted", zap.String("base", baseAmount.String()), zap.String("price", price.String()))

	approved, err := o.step(ctx, op, apperr.PhaseApprove, token.Conn(), func() (*contract.Pending, error) {
		return token.Approve(ctx, store.Address(), price)
	})
	if err != nil {
		return nil, err
	}

	bought, err := o.step(ctx, op, apperr.PhasePurchase, store.Conn(), func() (*contract.Pending, error) {
		return store.Buy(ctx, itemID, baseAmount)
	})
	if err != nil {
		e := apperr.At(err, apperr.PhasePurchase)
		e.Message = fmt.Sprintf("%s (the approval of %s to the store in tx %s was not revoked)",
			e.Message, price, approved.Hash.Hex())
		op.log.Warn("purchase failed after approval; allowance left in place", zap.String("allowance", price.String()))
		return nil, e
	}

	out := op.done(approved, bought)
	out.Quote = price
	return out, nil
}
