package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// codeUserRejected is the EIP-1193 "user rejected request" code.
const codeUserRejected = 4001

// Failure sources implement whichever of these they can answer. Wallets,
// transports and contracts wrap each other inconsistently, so Normalize
// searches the whole error chain for each one.
type (
	revertMessager   interface{ RevertMessage() string }
	providerMessager interface{ ProviderMessage() string }
	reasoner         interface{ Reason() string }
	messager         interface{ Message() string }
	coder            interface{ ErrorCode() int }
)

// Description is a loosely-typed failure: the fields a wallet, node or
// contract may have filled in, in no particular combination.
type Description struct {
	Revert   string // structured revert message (data.message)
	Provider string // nested provider error (error.message)
	Reason   string // top-level reason string
	Message  string // generic message
	Code     int

	fallback string
}

type extractor struct {
	source string
	get    func(Description) string
}

// extractors is the priority order; the first non-empty value wins.
var extractors = []extractor{
	{"revert", func(d Description) string { return d.Revert }},
	{"provider", func(d Description) string { return d.Provider }},
	{"reason", func(d Description) string { return d.Reason }},
	{"message", func(d Description) string { return d.Message }},
	{"fallback", func(d Description) string { return d.fallback }},
}

// Normalize folds any failure value into an *Error attributed to phase.
// An *Error already in the chain keeps its kind and message; its phase is
// filled in only when empty. Returns nil for nil. Use At when the failure
// must be reported at the caller's step regardless of where it was built.
func Normalize(v any, phase Phase) *Error {
	if v == nil {
		return nil
	}
	var cause error
	if err, ok := v.(error); ok {
		var ae *Error
		if errors.As(err, &ae) {
			out := *ae
			if out.Phase == "" {
				out.Phase = phase
			}
			return &out
		}
		cause = err
	}

	d := Describe(v)
	msg, source := d.first()
	if cause == nil {
		cause = errors.New(msg)
	}
	return &Error{
		Kind:    classify(cause, d),
		Phase:   phase,
		Message: msg,
		Source:  source,
		Err:     cause,
	}
}

// At normalizes v and attributes the result to phase, overriding any phase
// an existing *Error carried. Returns nil for nil.
func At(v any, phase Phase) *Error {
	e := Normalize(v, phase)
	if e != nil {
		e.Phase = phase
	}
	return e
}

// Describe extracts every known message field from v.
func Describe(v any) Description {
	switch x := v.(type) {
	case Description:
		return x
	case *Description:
		if x == nil {
			return Description{}
		}
		return *x
	case map[string]any:
		return describeMap(x)
	case error:
		return describeError(x)
	case string:
		return Description{fallback: x}
	default:
		return Description{fallback: fmt.Sprint(v)}
	}
}

func (d Description) first() (msg, source string) {
	for _, ex := range extractors {
		if s := strings.TrimSpace(ex.get(d)); s != "" {
			return s, ex.source
		}
	}
	return "unknown error", "fallback"
}

func describeError(err error) Description {
	var d Description
	var rm revertMessager
	if errors.As(err, &rm) {
		d.Revert = rm.RevertMessage()
	}
	var pm providerMessager
	if errors.As(err, &pm) {
		d.Provider = pm.ProviderMessage()
	}
	var rs reasoner
	if errors.As(err, &rs) {
		d.Reason = rs.Reason()
	}
	var ms messager
	if errors.As(err, &ms) {
		d.Message = ms.Message()
	}
	var c coder
	if errors.As(err, &c) {
		d.Code = c.ErrorCode()
	}
	d.fallback = err.Error()
	return d
}

// describeMap reads the JSON-shaped payloads wallets hand back:
// {data:{message}, error:{message}, reason, message, code}.
func describeMap(m map[string]any) Description {
	var d Description
	if data, ok := m["data"].(map[string]any); ok {
		d.Revert = str(data["message"])
	}
	if nested, ok := m["error"].(map[string]any); ok {
		d.Provider = str(nested["message"])
		if d.Code == 0 {
			d.Code = num(nested["code"])
		}
	}
	d.Reason = str(m["reason"])
	d.Message = str(m["message"])
	if c := num(m["code"]); c != 0 {
		d.Code = c
	}
	d.fallback = fmt.Sprint(m)
	return d
}

func classify(err error, d Description) Kind {
	if d.Code == codeUserRejected || errors.Is(err, ErrUserRejected) {
		return KindUserRejected
	}
	return KindRemoteRejected
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
