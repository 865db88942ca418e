package orchestrate_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/chain"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/ledgertest"
	"github.com/Mohsinsiddi/w3fund/internal/orchestrate"
	"github.com/Mohsinsiddi/w3fund/internal/session"
)

var (
	user      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	storeAddr = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	factAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	campAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c4")
)

type fixture struct {
	ledger *ledgertest.Ledger
	conn   *session.Connection
	events []orchestrate.Event
	orch   *orchestrate.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := ledgertest.New(11155111, user)
	l.Deploy(tokenAddr, contract.MustBuiltin(contract.IDGame))
	l.Deploy(storeAddr, contract.MustBuiltin(contract.IDStore))
	l.Deploy(factAddr, contract.MustBuiltin(contract.IDFactory))
	l.Deploy(campAddr, contract.MustBuiltin(contract.IDCampaign))
	conn, err := session.NewManager(l, big.NewInt(11155111)).Connect(context.Background())
	require.NoError(t, err)

	f := &fixture{ledger: l, conn: conn}
	f.orch = orchestrate.New(orchestrate.WithReporter(func(e orchestrate.Event) {
		f.events = append(f.events, e)
	}))
	return f
}

func (f *fixture) factory() *contract.CampaignFactory { return contract.NewFactory(factAddr, f.conn) }
func (f *fixture) campaign() *contract.CrowdCampaign  { return contract.NewCampaign(campAddr, f.conn) }
func (f *fixture) token() *contract.Token             { return contract.NewToken(tokenAddr, f.conn) }
func (f *fixture) store() *contract.ItemStore         { return contract.NewStore(storeAddr, f.conn) }

// ---------------------------------------------------------------------------
// CreateCampaign
// ---------------------------------------------------------------------------

func TestCreateCampaignDurationFloor(t *testing.T) {
	tests := []struct {
		days string
		want int64
	}{
		{"1", 86400},
		{"0.5", 43200},
		{"30", 2_592_000},
		{"1.00001", 86400},
		{"0.00002", 1},
		{" 7 ", 604800},
	}
	for _, tt := range tests {
		t.Run(tt.days, func(t *testing.T) {
			f := newFixture(t)
			out, err := f.orch.CreateCampaign(context.Background(), f.factory(), "Save the forest", "1.5", tt.days)
			require.NoError(t, err)

			writes := f.ledger.Writes()
			require.Len(t, writes, 1)
			assert.Equal(t, "createCampaign", writes[0].Method)
			assert.Equal(t, "Save the forest", writes[0].Args[0])
			assert.Equal(t, "1500000000000000000", writes[0].Args[1].(*big.Int).String())
			assert.Equal(t, tt.want, writes[0].Args[2].(*big.Int).Int64())

			require.Len(t, out.Steps, 1)
			assert.Equal(t, apperr.PhaseCreate, out.Last().Step)
			assert.NotZero(t, out.Last().BlockNumber)
		})
	}
}

func TestCreateCampaignReportsSubmittedThenConfirmed(t *testing.T) {
	f := newFixture(t)
	out, err := f.orch.CreateCampaign(context.Background(), f.factory(), "Title", "1", "2")
	require.NoError(t, err)

	require.Len(t, f.events, 2)
	assert.Equal(t, orchestrate.Submitted, f.events[0].Phase)
	assert.Zero(t, f.events[0].BlockNumber)
	assert.Equal(t, orchestrate.Confirmed, f.events[1].Phase)
	assert.Equal(t, f.events[0].Hash, f.events[1].Hash)
	assert.Equal(t, out.Last().BlockNumber, f.events[1].BlockNumber)
	assert.NotEmpty(t, out.OperationID)
	assert.Equal(t, out.OperationID, f.events[0].OperationID)
}

func TestCreateCampaignValidationMakesNoCalls(t *testing.T) {
	tests := []struct {
		name, title, goal, days string
	}{
		{"empty title", "", "1", "1"},
		{"blank title", "   ", "1", "1"},
		{"zero goal", "t", "0", "1"},
		{"negative goal", "t", "-1", "1"},
		{"garbage goal", "t", "lots", "1"},
		{"empty goal", "t", "", "1"},
		{"zero days", "t", "1", "0"},
		{"negative days", "t", "1", "-3"},
		{"garbage days", "t", "1", "soon"},
		{"nan days", "t", "1", "NaN"},
		{"inf days", "t", "1", "Inf"},
		{"sub-second days", "t", "1", "0.000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.ledger.Requests()

			_, err := f.orch.CreateCampaign(context.Background(), f.factory(), tt.title, tt.goal, tt.days)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, before, f.ledger.Requests(), "no network calls after a validation failure")
			assert.Empty(t, f.events)
		})
	}
}

func TestCreateCampaignAcceptsCommaGoal(t *testing.T) {
	in, err := orchestrate.ValidateCampaign("t", "0,25", "1")
	require.NoError(t, err)
	assert.Equal(t, "250000000000000000", in.GoalWei.String())
}

// ---------------------------------------------------------------------------
// Contribute / Finalize
// ---------------------------------------------------------------------------

func TestContributeSendsValue(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Contribute(context.Background(), f.campaign(), "0.01")
	require.NoError(t, err)

	writes := f.ledger.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "contribute", writes[0].Method)
	assert.Equal(t, "10000000000000000", writes[0].Value.String())
}

func TestContributeInvalidAmount(t *testing.T) {
	for _, amt := range []string{"", "0", "-0.5", "abc"} {
		f := newFixture(t)
		before := f.ledger.Requests()
		_, err := f.orch.Contribute(context.Background(), f.campaign(), amt)
		assert.ErrorIs(t, err, apperr.ErrValidation, amt)
		assert.Equal(t, before, f.ledger.Requests())
	}
}

func TestContributeRechecksNetwork(t *testing.T) {
	f := newFixture(t)
	f.ledger.SetChainID(1)

	_, err := f.orch.Contribute(context.Background(), f.campaign(), "1")
	assert.ErrorIs(t, err, apperr.ErrWrongNetwork)
	assert.Equal(t, apperr.PhaseContribute, err.(*apperr.Error).Phase)
	assert.Empty(t, f.ledger.Writes())
}

func TestFinalizeSurfacesRemoteRejection(t *testing.T) {
	f := newFixture(t)
	f.ledger.FailSend(campAddr, "finalizeCampaign", &chain.RPCError{
		Code: 3, Msg: "execution reverted", Data: []byte(`{"message":"execution reverted: only owner"}`),
	})

	_, err := f.orch.Finalize(context.Background(), f.campaign())
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindRemoteRejected, appErr.Kind)
	assert.Equal(t, apperr.PhaseFinalize, appErr.Phase)
	assert.Equal(t, "execution reverted: only owner", appErr.Message)
	assert.Empty(t, f.events)
}

func TestFinalizeRevertedOnChain(t *testing.T) {
	f := newFixture(t)
	f.ledger.RevertOnMine(campAddr, "finalizeCampaign")

	_, err := f.orch.Finalize(context.Background(), f.campaign())
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.PhaseFinalize, appErr.Phase)
	assert.Contains(t, appErr.Message, "reverted")
	require.Len(t, f.events, 1, "submitted but never confirmed")
	assert.Equal(t, orchestrate.Submitted, f.events[0].Phase)
}

// ---------------------------------------------------------------------------
// PurchaseItem
// ---------------------------------------------------------------------------

// quoteCounter prices at base * (100 + n) / 100 where n counts quotes.
func quoteCounter(f *fixture) *int {
	n := new(int)
	f.ledger.OnRead(storeAddr, "getPrice", func(args []any) ([]any, error) {
		*n++
		base := args[0].(*big.Int)
		p := new(big.Int).Mul(base, big.NewInt(int64(100+*n)))
		return []any{p.Div(p, big.NewInt(100))}, nil
	})
	return n
}

func TestPurchaseApprovesFreshQuoteThenBuys(t *testing.T) {
	f := newFixture(t)
	quotes := quoteCounter(f)
	ctx := context.Background()

	// A quote shown earlier must not be reused.
	stale, err := f.store().Price(ctx, big.NewInt(1000))
	require.NoError(t, err)

	out, err := f.orch.PurchaseItem(ctx, f.token(), f.store(), big.NewInt(2), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, 2, *quotes)
	assert.Equal(t, int64(1020), out.Quote.Int64())
	assert.NotEqual(t, stale.Int64(), out.Quote.Int64())

	writes := f.ledger.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, "approve", writes[0].Method)
	assert.Equal(t, tokenAddr, writes[0].To)
	assert.Equal(t, storeAddr, writes[0].Args[0])
	assert.Equal(t, int64(1020), writes[0].Args[1].(*big.Int).Int64())
	assert.Equal(t, "buy", writes[1].Method)
	assert.Equal(t, int64(2), writes[1].Args[0].(*big.Int).Int64())
	assert.Equal(t, int64(1000), writes[1].Args[1].(*big.Int).Int64())

	require.Len(t, out.Steps, 2)
	assert.Equal(t, apperr.PhaseApprove, out.Steps[0].Step)
	assert.Equal(t, apperr.PhasePurchase, out.Steps[1].Step)
	assert.Less(t, out.Steps[0].BlockNumber, out.Steps[1].BlockNumber)

	var phases []string
	for _, e := range f.events {
		phases = append(phases, string(e.Step)+":"+string(e.Phase))
	}
	assert.Equal(t, []string{
		"approve:submitted", "approve:confirmed",
		"purchase:submitted", "purchase:confirmed",
	}, phases)
}

func TestPurchaseBuyNotSubmittedBeforeApprovalConfirms(t *testing.T) {
	f := newFixture(t)
	quoteCounter(f)
	var order []string
	f.ledger.OnWritten(func(w ledgertest.Write) { order = append(order, w.Method) })
	orch := orchestrate.New(orchestrate.WithReporter(func(e orchestrate.Event) {
		if e.Step == apperr.PhaseApprove && e.Phase == orchestrate.Confirmed {
			order = append(order, "approve-confirmed")
		}
	}))

	_, err := orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), big.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, []string{"approve", "approve-confirmed", "buy"}, order)
}

func TestPurchaseApprovalRejectedMakesOneWrite(t *testing.T) {
	f := newFixture(t)
	quoteCounter(f)
	f.ledger.FailSend(tokenAddr, "approve", &chain.RPCError{Code: 4001, Msg: "User denied transaction signature."})

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), big.NewInt(50))
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.PhaseApprove, appErr.Phase)
	assert.Equal(t, apperr.KindUserRejected, appErr.Kind)
	require.Len(t, f.ledger.Writes(), 1)
	assert.Equal(t, "approve", f.ledger.Writes()[0].Method)
}

func TestPurchaseApprovalRevertsMakesOneWrite(t *testing.T) {
	f := newFixture(t)
	quoteCounter(f)
	f.ledger.RevertOnMine(tokenAddr, "approve")

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), big.NewInt(50))
	assert.Equal(t, apperr.PhaseApprove, err.(*apperr.Error).Phase)
	assert.Len(t, f.ledger.Writes(), 1)
}

func TestPurchaseFailureLeavesAllowanceNoted(t *testing.T) {
	f := newFixture(t)
	quoteCounter(f)
	f.ledger.RevertOnMine(storeAddr, "buy")

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(3), big.NewInt(120))
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.PhasePurchase, appErr.Phase)
	assert.Contains(t, appErr.Message, "approval of 121")
	assert.Contains(t, appErr.Message, "not revoked")

	writes := f.ledger.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, "approve", writes[0].Method)
	assert.Equal(t, "buy", writes[1].Method)
}

func TestPurchaseNetworkSwitchAfterApprovalIsPurchaseFailure(t *testing.T) {
	f := newFixture(t)
	quoteCounter(f)
	f.ledger.OnWritten(func(w ledgertest.Write) {
		if w.Method == "approve" {
			f.ledger.SetChainID(1)
		}
	})

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), big.NewInt(50))
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindWrongNetwork, appErr.Kind)
	assert.Equal(t, apperr.PhasePurchase, appErr.Phase)
	assert.Contains(t, appErr.Message, "not revoked")
	require.Len(t, f.ledger.Writes(), 1)
	assert.Equal(t, "approve", f.ledger.Writes()[0].Method)
}

func TestPurchaseNetworkSwitchDuringQuoteIsApproveFailure(t *testing.T) {
	f := newFixture(t)
	f.ledger.OnRead(storeAddr, "getPrice", func(args []any) ([]any, error) {
		f.ledger.SetChainID(1)
		return []any{args[0]}, nil
	})

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), big.NewInt(50))
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindWrongNetwork, appErr.Kind)
	assert.Equal(t, apperr.PhaseApprove, appErr.Phase)
	assert.Empty(t, f.ledger.Writes())
}

func TestPurchaseQuoteFailureMakesNoWrites(t *testing.T) {
	f := newFixture(t)
	f.ledger.OnRead(storeAddr, "getPrice", func([]any) ([]any, error) {
		return nil, errors.New("store paused")
	})

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), big.NewInt(50))
	assert.Equal(t, apperr.PhaseQuote, err.(*apperr.Error).Phase)
	assert.Empty(t, f.ledger.Writes())
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture(t)
	before := f.ledger.Requests()

	_, err := f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(0), big.NewInt(50))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.orch.PurchaseItem(context.Background(), f.token(), f.store(), big.NewInt(1), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, before, f.ledger.Requests())
}
