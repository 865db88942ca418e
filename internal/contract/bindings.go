package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the game token.
type Token struct{ *Handle }

// NewToken binds the game token at addr.
func NewToken(addr common.Address, conn Conn) *Token {
	return &Token{Bind(addr, MustBuiltin(IDGame), conn)}
}

func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Handle, "balanceOf", owner)
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	return callOne[uint8](ctx, t.Handle, "decimals")
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return callOne[string](ctx, t.Handle, "symbol")
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, t.Handle, "allowance", owner, spender)
}

// Approve lets spender pull up to amount from the connected account.
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*Pending, error) {
	return t.Transact(ctx, nil, "approve", spender, amount)
}

// CampaignFactory is the campaign registry.
type CampaignFactory struct{ *Handle }

// NewFactory binds the campaign factory at addr.
func NewFactory(addr common.Address, conn Conn) *CampaignFactory {
	return &CampaignFactory{Bind(addr, MustBuiltin(IDFactory), conn)}
}

// Campaigns lists every campaign address in creation order.
func (f *CampaignFactory) Campaigns(ctx context.Context) ([]common.Address, error) {
	return callOne[[]common.Address](ctx, f.Handle, "getCampaigns")
}

func (f *CampaignFactory) CreateCampaign(ctx context.Context, title string, goalWei, durationSeconds *big.Int) (*Pending, error) {
	return f.Transact(ctx, nil, "createCampaign", title, goalWei, durationSeconds)
}

// CrowdCampaign is one campaign instance.
type CrowdCampaign struct{ *Handle }

// NewCampaign binds the campaign at addr.
func NewCampaign(addr common.Address, conn Conn) *CrowdCampaign {
	return &CrowdCampaign{Bind(addr, MustBuiltin(IDCampaign), conn)}
}

func (c *CrowdCampaign) Name(ctx context.Context) (string, error) {
	return callOne[string](ctx, c.Handle, "name")
}

func (c *CrowdCampaign) Goal(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c.Handle, "goal")
}

// Deadline is a unix timestamp in seconds.
func (c *CrowdCampaign) Deadline(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c.Handle, "deadline")
}

func (c *CrowdCampaign) TotalRaised(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c.Handle, "totalRaised")
}

func (c *CrowdCampaign) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, c.Handle, "owner")
}

// Contribute sends value wei to the campaign.
func (c *CrowdCampaign) Contribute(ctx context.Context, value *big.Int) (*Pending, error) {
	return c.Transact(ctx, value, "contribute")
}

func (c *CrowdCampaign) Finalize(ctx context.Context) (*Pending, error) {
	return c.Transact(ctx, nil, "finalizeCampaign")
}

// ItemStore is the token-priced store.
type ItemStore struct{ *Handle }

// NewStore binds the store at addr.
func NewStore(addr common.Address, conn Conn) *ItemStore {
	return &ItemStore{Bind(addr, MustBuiltin(IDStore), conn)}
}

// Price quotes the current cost of base, both in token base units.
func (s *ItemStore) Price(ctx context.Context, base *big.Int) (*big.Int, error) {
	return callOne[*big.Int](ctx, s.Handle, "getPrice", base)
}

func (s *ItemStore) Buy(ctx context.Context, itemID, base *big.Int) (*Pending, error) {
	return s.Transact(ctx, nil, "buy", itemID, base)
}
