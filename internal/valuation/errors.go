package valuation

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the closed error taxonomy from spec.md §7. The grid cascade and the
// duplicate detector return store failures as fmt.Errorf-wrapped errors that
// carry no Kind.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindInsufficientData    Kind = "insufficient_data"
	KindCostsExceedTarget   Kind = "costs_exceed_target"
	KindTimeout             Kind = "timeout"
	KindStoreUnavailable    Kind = "store_unavailable"
	KindNormalizationFailed Kind = "normalization_failed"
)

// Error is the structured payload callers receive for every failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	// Breakdown carries the offending cost breakdown for CostsExceedTarget.
	Breakdown map[string]float64
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is comparisons against a bare Kind sentinel created via
// NewKind, matching on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewKind builds a sentinel usable with errors.Is(err, NewKind(KindTimeout)).
func NewKind(k Kind) *Error {
	return &Error{Kind: k}
}

func InvalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InsufficientData(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficientData, Message: fmt.Sprintf(format, args...)}
}

func CostsExceedTarget(interestPrice float64, breakdown map[string]float64) *Error {
	return &Error{
		Kind:      KindCostsExceedTarget,
		Message:   fmt.Sprintf("interest price non-positive: %.2f", interestPrice),
		Breakdown: breakdown,
	}
}

func Timeout(cause error) *Error {
	return &Error{Kind: KindTimeout, Message: "deadline exceeded", Cause: cause}
}

func StoreUnavailable(cause error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "spatial store transport error", Cause: pkgerrors.WithStack(cause)}
}

func NormalizationFailed(cause error) *Error {
	return &Error{Kind: KindNormalizationFailed, Message: "address normalizer unreachable", Cause: cause}
}
