package coordinate

import (
	"errors"
	"fmt"
)

// Kind classifies a storage failure.
type Kind int

// Failure kinds. KindUnknown is reported for errors from outside the taxonomy.
const (
	KindUnknown Kind = iota

	// KindNotFound: an insert returned no row.
	KindNotFound

	// KindPool: no pooled connection could be checked out.
	KindPool

	// KindQuery: preparing, executing or iterating the statement failed.
	KindQuery

	// KindMapping: a returned row could not be decoded into a Coordinate.
	KindMapping
)

// String returns the kind name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPool:
		return "pool"
	case KindQuery:
		return "query"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrNotFound = errors.New("no row returned")
	ErrPool     = errors.New("pooled connection unavailable")
	ErrQuery    = errors.New("statement failed")
	ErrMapping  = errors.New("row could not be decoded")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindPool:
		return ErrPool
	case KindQuery:
		return ErrQuery
	case KindMapping:
		return ErrMapping
	default:
		return nil
	}
}

// Error is a classified storage failure. Err carries the underlying cause
// and is nil for KindNotFound.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Detail returns the underlying cause's message, or "" if there is none.
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// PoolError classifies a failed connection checkout.
func PoolError(op string, err error) *Error {
	return &Error{Kind: KindPool, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
