package orchestrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3fund/internal/apperr"
	"github.com/Mohsinsiddi/w3fund/internal/contract"
)

type operation struct {
	id  string
	log *zap.Logger
}

func (o *Orchestrator) begin(kind string) *operation {
	id := o.newID()
	return &operation{
		id:  id,
		log: o.log.With(zap.String("op", kind), zap.String("op_id", id)),
	}
}

func (op *operation) done(steps ...StepResult) *Outcome {
	op.log.Info("operation confirmed", zap.Int("steps", len(steps)))
	return &Outcome{OperationID: op.id, Steps: steps}
}

// step re-checks the network, submits one write, and waits for it. Any
// failure, a network switch included, is reported at phase.
func (o *Orchestrator) step(ctx context.Context, op *operation, phase apperr.Phase, conn contract.Conn, submit func() (*contract.Pending, error)) (StepResult, error) {
	if err := conn.Verify(ctx); err != nil {
		return StepResult{}, apperr.At(err, phase)
	}

	pending, err := submit()
	if err != nil {
		op.log.Debug("submit failed", zap.String("step", string(phase)), zap.Error(err))
		return StepResult{}, apperr.At(err, phase)
	}
	op.log.Info("submitted", zap.String("step", string(phase)), zap.String("hash", pending.Hash.Hex()))
	o.report(Event{OperationID: op.id, Step: phase, Phase: Submitted, Hash: pending.Hash})

	receipt, err := pending.Wait(ctx)
	if err != nil {
		op.log.Debug("wait failed", zap.String("step", string(phase)), zap.Error(err))
		return StepResult{}, apperr.At(err, phase)
	}
	op.log.Info("confirmed", zap.String("step", string(phase)), zap.Uint64("block", receipt.BlockNumber))
	o.report(Event{
		OperationID: op.id,
		Step:        phase,
		Phase:       Confirmed,
		Hash:        pending.Hash,
		BlockNumber: receipt.BlockNumber,
	})
	return StepResult{Step: phase, Hash: pending.Hash, BlockNumber: receipt.BlockNumber}, nil
}
