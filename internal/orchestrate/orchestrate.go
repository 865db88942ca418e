// Package orchestrate runs the fee-bearing operations: each is a sequence
// of dependent writes, every write confirmed before the next is submitted,
// ending either with all steps confirmed or with a single *apperr.Error.
package orchestrate

import (
	"context"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
	"github.com/Mohsinsiddi/w3fund/internal/units"
)

// Phase is the progress of one write.
type Phase string

const (
	Submitted Phase = "submitted"
	Confirmed Phase = "confirmed"
)

// Event is a progress notification. BlockNumber is set once Confirmed.
type Event struct {
	OperationID string
	Step        apperr.Phase
	Phase       Phase
	Hash        common.Hash
	BlockNumber uint64
}

// Reporter receives events in order, on the calling goroutine.
type Reporter func(Event)

// StepResult is one confirmed write.
type StepResult struct {
	Step        apperr.Phase
	Hash        common.Hash
	BlockNumber uint64
}

// Outcome is a fully confirmed operation.
type Outcome struct {
	OperationID string
	Steps       []StepResult
	// Quote is the price approved by a purchase, nil otherwise.
	Quote *big.Int
}

// Last returns the final step.
func (o *Outcome) Last() StepResult {
	if len(o.Steps) == 0 {
		return StepResult{}
	}
	return o.Steps[len(o.Steps)-1]
}

// Orchestrator runs operations. It holds no per-operation state.
type Orchestrator struct {
	report Reporter
	log    *zap.Logger
	newID  func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReporter sets the progress callback.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.report = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		report: func(Event) {},
		log:    zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CampaignInput is a validated campaign creation request.
type CampaignInput struct {
	Title           string
	GoalWei         *big.Int
	DurationSeconds *big.Int
}

// ValidateCampaign checks creation input without touching the network.
// Days may be fractional; the duration is floor(days*86400) seconds.
func ValidateCampaign(title, goal, days string) (CampaignInput, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return CampaignInput{}, apperr.Validation("title is required")
	}
	goalWei, err := units.ParseEther(goal)
	if err != nil || goalWei.Sign() <= 0 {
		return CampaignInput{}, apperr.Validation("goal must be a positive ETH amount, got %q", strings.TrimSpace(goal))
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(days), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return CampaignInput{}, apperr.Validation("duration must be a positive number of days, got %q", strings.TrimSpace(days))
	}
	secs := math.Floor(d * 86400)
	if secs < 1 {
		return CampaignInput{}, apperr.Validation("duration must be at least one second")
	}
	if secs > math.MaxInt64 {
		return CampaignInput{}, apperr.Validation("duration is too long")
	}
	return CampaignInput{
		Title:           title,
		GoalWei:         goalWei,
		DurationSeconds: big.NewInt(int64(secs)),
	}, nil
}

// ValidateAmount checks a contribution amount in ETH.
func ValidateAmount(amount string) (*big.Int, error) {
	wei, err := units.ParseEther(amount)
	if err != nil || wei.Sign() <= 0 {
		return nil, apperr.Validation("amount must be a positive ETH amount, got %q", strings.TrimSpace(amount))
	}
	return wei, nil
}

// CreateCampaign validates the input, then deploys a campaign through the
// factory.
func (o *Orchestrator) CreateCampaign(ctx context.Context, factory *contract.CampaignFactory, title, goal, days string) (*Outcome, error) {
	in, err := ValidateCampaign(title, goal, days)
	if err != nil {
		return nil, err
	}
	op := o.begin("create_campaign")
	res, err := o.step(ctx, op, apperr.PhaseCreate, factory.Conn(), func() (*contract.Pending, error) {
		return factory.CreateCampaign(ctx, in.Title, in.GoalWei, in.DurationSeconds)
	})
	if err != nil {
		return nil, err
	}
	return op.done(res), nil
}

// Contribute sends amount ETH to a campaign.
func (o *Orchestrator) Contribute(ctx context.Context, campaign *contract.CrowdCampaign, amount string) (*Outcome, error) {
	wei, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}
	op := o.begin("contribute")
	res, err := o.step(ctx, op, apperr.PhaseContribute, campaign.Conn(), func() (*contract.Pending, error) {
		return campaign.Contribute(ctx, wei)
	})
	if err != nil {
		return nil, err
	}
	return op.done(res), nil
}

// Finalize closes a campaign. Ownership is enforced by the contract.
func (o *Orchestrator) Finalize(ctx context.Context, campaign *contract.CrowdCampaign) (*Outcome, error) {
	op := o.begin("finalize")
	res, err := o.step(ctx, op, apperr.PhaseFinalize, campaign.Conn(), func() (*contract.Pending, error) {
		return campaign.Finalize(ctx)
	})
	if err != nil {
		return nil, err
	}
	return op.done(res), nil
}
