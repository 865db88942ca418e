// Package aggregate assembles read-only views from many contract reads
// issued in parallel: the campaign board, the store price list and the
// account balances.
package aggregate

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/session"
	"github.com/Mohsinsiddi/w3fund/internal/units"
)

// CampaignView is a point-in-time snapshot of one campaign.
type CampaignView struct {
	Address  common.Address
	Title    string
	Goal     *big.Int
	Deadline time.Time
	Raised   *big.Int
	Owner    common.Address

	// SecondsRemaining is measured against the local clock and is advisory;
	// the contract decides whether the campaign still accepts funds.
	SecondsRemaining int64
	Countdown        string
}

// Ended reports whether the deadline has passed by the local clock.
func (v CampaignView) Ended() bool { return v.SecondsRemaining == 0 }

// GoalMet reports whether the raised amount reached the goal.
func (v CampaignView) GoalMet() bool {
	return v.Raised != nil && v.Goal != nil && v.Raised.Cmp(v.Goal) >= 0
}

// GoalETH is the goal in ether, ethers-style ("1.5", "2.0").
func (v CampaignView) GoalETH() string { return units.FormatEther(v.Goal) }

// RaisedETH is the raised amount in ether.
func (v CampaignView) RaisedETH() string { return units.FormatEther(v.Raised) }

// PricedItem is a catalog item with a quote valid only at read time.
type PricedItem struct {
	StoreItem
	BaseUnits *big.Int
	Price     *big.Int
	Decimals  uint8
}

// PriceFormatted is the quote in whole tokens.
func (p PricedItem) PriceFormatted() string { return units.Format(p.Price, p.Decimals) }

// Balances is the connected account's holdings.
type Balances struct {
	Address  common.Address
	Ether    *big.Int
	Token    *big.Int
	Symbol   string
	Decimals uint8
	// Allowance granted to the spender passed to Balances; nil without one.
	Allowance *big.Int
}

// EtherFormatted is the native balance in ether.
func (b *Balances) EtherFormatted() string { return units.FormatEther(b.Ether) }

// TokenFormatted is the token balance in whole tokens.
func (b *Balances) TokenFormatted() string { return units.Format(b.Token, b.Decimals) }

// Aggregator runs the fan-out reads.
type Aggregator struct {
	clock clock.Clock
	log   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock used for time remaining.
func WithClock(c clock.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New creates an Aggregator on the wall clock.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{clock: clock.New(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListCampaigns reads the factory registry, then every field of every
// campaign concurrently. Any failed read fails the whole listing. Views
// keep registry order.
func (a *Aggregator) ListCampaigns(ctx context.Context, factory *contract.CampaignFactory) ([]CampaignView, error) {
	addrs, err := factory.Campaigns(ctx)
	if err != nil {
		return nil, apperr.Normalize(fmt.Errorf("reading campaign registry: %w", err), apperr.PhaseList)
	}
	a.log.Debug("campaign registry read", zap.Int("count", len(addrs)))
	if len(addrs) == 0 {
		return []CampaignView{}, nil
	}

	views := make([]CampaignView, len(addrs))
	deadlines := make([]*big.Int, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		c := contract.NewCampaign(addr, factory.Conn())
		v := &views[i]
		v.Address = addr
		g.Go(func() (err error) {
			v.Title, err = c.Name(gctx)
			return field(addr, "name", err)
		})
		g.Go(func() (err error) {
			v.Goal, err = c.Goal(gctx)
			return field(addr, "goal", err)
		})
		g.Go(func() (err error) {
			deadlines[i], err = c.Deadline(gctx)
			return field(addr, "deadline", err)
		})
		g.Go(func() (err error) {
			v.Raised, err = c.TotalRaised(gctx)
			return field(addr, "totalRaised", err)
		})
		g.Go(func() (err error) {
			v.Owner, err = c.Owner(gctx)
			return field(addr, "owner", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Normalize(err, apperr.PhaseList)
	}

	now := a.clock.Now()
	for i := range views {
		dl := clampDeadline(deadlines[i])
		views[i].Deadline = time.Unix(dl, 0)
		views[i].SecondsRemaining = SecondsRemaining(dl, now)
		views[i].Countdown = Countdown(views[i].SecondsRemaining)
	}
	return views, nil
}

// maxDeadline bounds a uint256 deadline to what time.Time can hold; later
// deadlines read as never ending.
const maxDeadline = int64(1) << 62

func clampDeadline(d *big.Int) int64 {
	if d.Sign() < 0 {
		return 0
	}
	if !d.IsInt64() || d.Int64() > maxDeadline {
		return maxDeadline
	}
	return d.Int64()
}

func field(addr common.Address, name string, err error) error {
	if err != nil {
		return fmt.Errorf("campaign %s %s: %w", addr.Hex(), name, err)
	}
	return nil
}

// PriceCatalog quotes every catalog item concurrently. decimals is the
// token's, used to convert each base price to base units.
func (a *Aggregator) PriceCatalog(ctx context.Context, store *contract.ItemStore, decimals uint8) ([]PricedItem, error) {
	items := Catalog()
	out := make([]PricedItem, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		base, err := units.Parse(it.Base, decimals)
		if err != nil {
			return nil, apperr.Normalize(fmt.Errorf("item %d base price: %w", it.ID, err), apperr.PhasePricing)
		}
		out[i] = PricedItem{StoreItem: it, BaseUnits: base, Decimals: decimals}
		g.Go(func() error {
			price, err := store.Price(gctx, base)
			if err != nil {
				return fmt.Errorf("pricing item %d: %w", it.ID, err)
			}
			out[i].Price = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Normalize(err, apperr.PhasePricing)
	}
	a.log.Debug("catalog priced", zap.Int("items", len(out)))
	return out, nil
}

// Balances reads the native balance and the token holdings of the
// connected account concurrently. A non-zero spender also reads the
// allowance granted to it.
func (a *Aggregator) Balances(ctx context.Context, conn *session.Connection, token *contract.Token, spender common.Address) (*Balances, error) {
	b := &Balances{Address: conn.Address}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Ether, err = conn.BalanceAt(gctx, conn.Address)
		return err
	})
	g.Go(func() (err error) {
		b.Token, err = token.BalanceOf(gctx, conn.Address)
		return err
	})
	g.Go(func() (err error) {
		b.Symbol, err = token.Symbol(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.Decimals, err = token.Decimals(gctx)
		return err
	})
	if spender != (common.Address{}) {
		g.Go(func() (err error) {
			b.Allowance, err = token.Allowance(gctx, conn.Address, spender)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Normalize(err, apperr.PhaseBalance)
	}
	return b, nil
}

// SecondsRemaining is max(0, deadline - now) in whole seconds.
func SecondsRemaining(deadline int64, now time.Time) int64 {
	left := deadline - now.Unix()
	if left < 0 {
		return 0
	}
	return left
}

// Countdown renders seconds as whole days and remaining whole hours.
func Countdown(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dd %dh", seconds/86400, (seconds%86400)/3600)
}
