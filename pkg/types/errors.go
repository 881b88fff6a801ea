package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for propagation purposes (spec §7). Each
// kind carries its own handling rule at the component boundary: an Infra
// failure of a safety check becomes Reject(infrastructure) at once, with no
// retry; Parse drops the offending message; Reject is terminal and
// telemetry-only; Terminal halts dispatch for the current opportunity only.
// The execution engine retries every endpoint error on its fixed schedule
// whatever its kind; no component returns KindTransient.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfig
	KindInfra
	KindParse
	KindArithmetic
	KindReject
	KindTransient
	KindTerminal
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindInfra:
		return "infra"
	case KindParse:
		return "parse"
	case KindArithmetic:
		return "arithmetic"
	case KindReject:
		return "reject"
	case KindTransient:
		return "transient"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// RejectReason enumerates why the opportunity pipeline refused to dispatch
// an opportunity (spec §4.4, §7). Each reason has a matching telemetry
// counter.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectSanity
	RejectSafety
	RejectSlippage
	RejectRug
	RejectImpact
	RejectRisk
	RejectBlacklist
	RejectLowLiquidity
)

func (r RejectReason) String() string {
	switch r {
	case RejectSanity:
		return "sanity"
	case RejectSafety:
		return "safety"
	case RejectSlippage:
		return "slippage"
	case RejectRug:
		return "rug"
	case RejectImpact:
		return "impact"
	case RejectRisk:
		return "risk"
	case RejectBlacklist:
		return "blacklist"
	case RejectLowLiquidity:
		return "low_liquidity"
	default:
		return "none"
	}
}

// EngineError wraps an underlying error with a Kind and the operation that
// produced it, so callers can branch on classification with errors.Is /
// errors.As without string-matching messages.
type EngineError struct {
	Kind   ErrorKind
	Op     string
	Reason RejectReason // populated when Kind == KindReject
	Err    error
}

func (e *EngineError) Error() string {
	if e.Kind == KindReject {
		return fmt.Sprintf("%s: rejected (%s): %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is lets callers write errors.Is(err, types.ErrParse) style checks against
// the sentinel kind markers below.
func (e *EngineError) Is(target error) bool {
	sentinel, ok := target.(*kindSentinel)
	if !ok {
		return false
	}
	return e.Kind == sentinel.kind
}

type kindSentinel struct{ kind ErrorKind }

func (s *kindSentinel) Error() string { return "kind:" + s.kind.String() }

var (
	ErrConfig     error = &kindSentinel{KindConfig}
	ErrInfra      error = &kindSentinel{KindInfra}
	ErrParse      error = &kindSentinel{KindParse}
	ErrArithmetic error = &kindSentinel{KindArithmetic}
	ErrReject     error = &kindSentinel{KindReject}
	ErrTransient  error = &kindSentinel{KindTransient}
	ErrTerminal   error = &kindSentinel{KindTerminal}
)

// NewError builds an *EngineError for kinds other than KindReject.
func NewError(kind ErrorKind, op string, err error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: err}
}

// NewReject builds an *EngineError carrying a RejectReason.
func NewReject(op string, reason RejectReason, err error) *EngineError {
	if err == nil {
		err = errors.New(reason.String())
	}
	return &EngineError{Kind: KindReject, Op: op, Reason: reason, Err: err}
}
