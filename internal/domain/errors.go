package domain

import "errors"

// FetchKind classifies provider-side failures.
type FetchKind string

const (
	FetchRateLimited FetchKind = "rate_limited" // provider quota exhausted
	FetchNotFound    FetchKind = "not_found"    // symbol unrecognized
	FetchUnreachable FetchKind = "unreachable"  // network error or timeout
	FetchMalformed   FetchKind = "malformed"    // response shape unexpected
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// FetchError is a typed provider failure. Rate limits and network
// failures are transient; an unknown symbol or a garbled response is
// not worth retrying.
type FetchError struct {
	Kind   FetchKind
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	msg := "fetch " + e.Symbol + ": " + string(e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) IsRetriable() bool {
	return e.Kind == FetchRateLimited || e.Kind == FetchUnreachable
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a typed provider failure for a symbol.
func NewFetchError(kind FetchKind, symbol string, err error) *FetchError {
	return &FetchError{Kind: kind, Symbol: symbol, Err: err}
}

// FetchKindOf extracts the failure kind from an error chain, or ""
// when the error is not a FetchError.
func FetchKindOf(err error) FetchKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// CacheError represents a failure of the persisted quote store.
// Reads treat it as a miss; writes log it and move on.
type CacheError struct {
	Op  string // "get", "put", "invalidate"
	Err error
}

func (e *CacheError) Error() string {
	return "cache " + e.Op + ": " + e.Err.Error()
}

func (e *CacheError) IsRetriable() bool {
	return true
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

var (
	// ErrCacheUnavailable is wrapped by CacheError when the backing
	// store cannot be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrInvalidSymbol is returned when a symbol is empty or malformed. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidHolding is returned when a holding fails construction-time validation.
	ErrInvalidHolding = errors.New("invalid holding")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
