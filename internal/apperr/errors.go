// Package apperr defines the user-facing error taxonomy of w3fund and the
// normalizer that folds wallet, transport and contract failures into it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the user can recover from it.
type Kind string

const (
	KindWalletUnavailable Kind = "wallet_unavailable"
	KindUserRejected      Kind = "user_rejected"
	KindWrongNetwork      Kind = "wrong_network"
	KindValidation        Kind = "validation"
	KindRemoteRejected    Kind = "remote_rejected"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrUserRejected      = errors.New("user rejected the request")
	ErrWrongNetwork      = errors.New("wrong network")
	ErrValidation        = errors.New("invalid input")
	ErrRemoteRejected    = errors.New("rejected by the network")
)

func (k Kind) sentinel() error {
	switch k {
	case KindWalletUnavailable:
		return ErrWalletUnavailable
	case KindUserRejected:
		return ErrUserRejected
	case KindWrongNetwork:
		return ErrWrongNetwork
	case KindValidation:
		return ErrValidation
	default:
		return ErrRemoteRejected
	}
}

// Retryable reports whether repeating the originating intent may succeed
// without any change outside w3fund. Nothing is ever retried automatically.
func (k Kind) Retryable() bool {
	return k == KindUserRejected
}

// Phase names the step of an operation that produced a failure.
type Phase string

const (
	PhaseSession    Phase = "session"
	PhaseValidate   Phase = "validate"
	PhaseList       Phase = "list"
	PhasePricing    Phase = "pricing"
	PhaseBalance    Phase = "balance"
	PhaseCreate     Phase = "create"
	PhaseContribute Phase = "contribute"
	PhaseFinalize   Phase = "finalize"
	PhaseQuote      Phase = "quote"
	PhaseApprove    Phase = "approve"
	PhasePurchase   Phase = "purchase"
)

// Error is the single structured failure surfaced to callers.
type Error struct {
	Kind    Kind
	Phase   Phase
	Message string
	// Source names the extractor that produced Message ("revert", "provider",
	// "reason", "message" or "fallback"); empty for locally built errors.
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Phase == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Phase, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// New builds an error of the given kind.
func New(kind Kind, phase Phase, msg string) *Error {
	return &Error{Kind: kind, Phase: phase, Message: msg}
}

// Validation builds a ValidationError; no network call may follow it.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Phase: PhaseValidate, Message: fmt.Sprintf(format, args...)}
}

// WalletUnavailable wraps err as a WalletUnavailable failure.
func WalletUnavailable(err error) *Error {
	msg := "no wallet available; add one with `w3fund wallet add` and select it with `w3fund wallet use`"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindWalletUnavailable, Phase: PhaseSession, Message: msg, Err: err}
}

// WrongNetwork reports a chain ID mismatch.
func WrongNetwork(want, got string) *Error {
	return &Error{
		Kind:    KindWrongNetwork,
		Phase:   PhaseSession,
		Message: fmt.Sprintf("wrong network: connected to chain %s, expected %s", got, want),
	}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
