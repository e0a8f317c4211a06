package types

import (
	"errors"
	"fmt"
)

// Command errors reported to invokers. None of them is fatal to the session.
var (
	ErrNotAPlayer  = errors.New("only players can use this command")
	ErrForbidden   = errors.New("permission denied")
	ErrNotMasked   = errors.New("you are not currently masked")
	ErrUnknownKey  = errors.New("unknown key")
	ErrCoercion    = errors.New("invalid value")
	ErrUnknownType = errors.New("unknown type")
	ErrUsage       = errors.New("usage")
	ErrRejected    = errors.New("value rejected")
)

// Engine and catalog errors.
var (
	ErrInvalidValueType = errors.New("invalid value type")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrKeyNotExposed    = errors.New("key not exposed by masquerade")
)

// CoercionError reports a raw option value that could not be converted to the
// type its key expects.
type CoercionError struct {
	Key  string    // Key id the value was meant for.
	Raw  string    // Value as typed by the user.
	Type ValueType // Expected type.
	Err  error     // Parse failure, or ErrInvalidValueType.
}

func (e *CoercionError) Error() string {
	if errors.Is(e.Err, ErrInvalidValueType) {
		return fmt.Sprintf("unknown value type for key %s: %s", e.Key, e.Type)
	}
	return fmt.Sprintf("invalid value for key %s: %s", e.Key, e.Raw)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCoercion) hold for every CoercionError.
func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }
