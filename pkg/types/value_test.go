package types

import (
	"errors"
	"strconv"
	"testing"
)

func TestValueTypeString(t *testing.T) {
	tests := []struct {
		vt   ValueType
		want string
	}{
		{ValueInt, "int"},
		{ValueFloat, "float"},
		{ValueBool, "bool"},
		{ValueByte, "byte"},
		{ValueString, "string"},
		{ValueText, "text"},
		{ValueType(0), "unknown"},
		{ValueType(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.vt.String(); got != tt.want {
				t.Errorf("ValueType(%d).String() = %q, want %q", int(tt.vt), got, tt.want)
			}
		})
	}
}

func TestParseValueType(t *testing.T) {
	for _, vt := range []ValueType{ValueInt, ValueFloat, ValueBool, ValueByte, ValueString, ValueText} {
		got, err := ParseValueType(vt.String())
		if err != nil {
			t.Fatalf("ParseValueType(%q) error = %v", vt.String(), err)
		}
		if got != vt {
			t.Errorf("ParseValueType(%q) = %v, want %v", vt.String(), got, vt)
		}
		if !got.Valid() {
			t.Errorf("%v.Valid() = false, want true", got)
		}
	}

	for _, name := range []string{"", "unknown", "double", "Int"} {
		if _, err := ParseValueType(name); err != ErrInvalidValueType {
			t.Errorf("ParseValueType(%q) error = %v, want %v", name, err, ErrInvalidValueType)
		}
	}
}

func TestTextOfKeepsRawContent(t *testing.T) {
	raw := "&aHello <b>World</b>"
	if got := TextOf(raw).String(); got != raw {
		t.Errorf("TextOf(%q).String() = %q", raw, got)
	}
}

func TestCoercionError(t *testing.T) {
	parseErr := &CoercionError{Key: "age", Raw: "abc", Type: ValueInt, Err: strconv.ErrSyntax}
	if !errors.Is(parseErr, ErrCoercion) {
		t.Error("errors.Is(parseErr, ErrCoercion) = false")
	}
	if !errors.Is(parseErr, strconv.ErrSyntax) {
		t.Error("errors.Is(parseErr, strconv.ErrSyntax) = false")
	}
	if got, want := parseErr.Error(), "invalid value for key age: abc"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	typeErr := &CoercionError{Key: "pose", Raw: "x", Type: ValueType(99), Err: ErrInvalidValueType}
	if got, want := typeErr.Error(), "unknown value type for key pose: unknown"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var ce *CoercionError
	if !errors.As(error(typeErr), &ce) || ce.Key != "pose" {
		t.Errorf("errors.As did not recover the CoercionError")
	}
}
