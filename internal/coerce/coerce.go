// Package coerce converts raw option strings typed by players into the Go
// value a masquerade key expects.
//
// Parsing is locale-independent and base-10. Booleans accept "true" and
// "false" in any letter case and nothing else. Floats must be finite.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/masquerade/pkg/types"
)

type parser func(raw string) (any, error)

// parsers has one entry per member of the closed ValueType set.
var parsers = map[types.ValueType]parser{
	types.ValueInt:    parseInt,
	types.ValueFloat:  parseFloat,
	types.ValueBool:   parseBool,
	types.ValueByte:   parseByte,
	types.ValueString: func(raw string) (any, error) { return raw, nil },
	types.ValueText:   func(raw string) (any, error) { return types.TextOf(raw), nil },
}

// Coerce converts raw to the type declared by key.
func Coerce(key types.Key, raw string) (any, error) {
	return Value(key.ValueType(), key.ID(), raw)
}

// Value converts raw to vt. keyID is only used for error reporting.
// Returns a *types.CoercionError when vt is outside the supported set or raw
// does not parse.
func Value(vt types.ValueType, keyID, raw string) (any, error) {
	p, ok := parsers[vt]
	if !ok {
		return nil, &types.CoercionError{Key: keyID, Raw: raw, Type: vt, Err: types.ErrInvalidValueType}
	}
	v, err := p(raw)
	if err != nil {
		return nil, &types.CoercionError{Key: keyID, Raw: raw, Type: vt, Err: err}
	}
	return v, nil
}

func parseInt(raw string) (any, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(n), nil
}

func parseByte(raw string) (any, error) {
	n, err := strconv.ParseInt(raw, 10, 8)
	if err != nil {
		return nil, err
	}
	return int8(n), nil
}

func parseFloat(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

func parseBool(raw string) (any, error) {
	switch strings.ToLower(raw) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, fmt.Errorf("%q is neither true nor false", raw)
}

// Format returns the canonical string form of a coerced value, the inverse of
// Value for every supported type.
func Format(v any) string {
	switch x := v.(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case types.Text:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// Matches reports whether v has the Go type that vt demands.
func Matches(vt types.ValueType, v any) bool {
	switch vt {
	case types.ValueInt:
		_, ok := v.(int32)
		return ok
	case types.ValueFloat:
		_, ok := v.(float64)
		return ok
	case types.ValueBool:
		_, ok := v.(bool)
		return ok
	case types.ValueByte:
		_, ok := v.(int8)
		return ok
	case types.ValueString:
		_, ok := v.(string)
		return ok
	case types.ValueText:
		_, ok := v.(types.Text)
		return ok
	}
	return false
}
