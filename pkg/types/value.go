package types

// ValueType is the closed set of option value types a Key may declare.
type ValueType int

// Supported value types. The Go type SetData receives is noted per constant.
const (
	ValueInt    ValueType = iota + 1 // int32
	ValueFloat                       // float64
	ValueBool                        // bool
	ValueByte                        // int8
	ValueString                      // string
	ValueText                        // Text
)

var valueTypeNames = map[ValueType]string{
	ValueInt:    "int",
	ValueFloat:  "float",
	ValueBool:   "bool",
	ValueByte:   "byte",
	ValueString: "string",
	ValueText:   "text",
}

// String returns the lowercase name of vt, or "unknown" outside the closed set.
func (vt ValueType) String() string {
	if name, ok := valueTypeNames[vt]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether vt is one of the supported value types.
func (vt ValueType) Valid() bool {
	_, ok := valueTypeNames[vt]
	return ok
}

// ParseValueType returns the ValueType named name.
// Returns ErrInvalidValueType if the name is not recognized.
func ParseValueType(name string) (ValueType, error) {
	for vt, n := range valueTypeNames {
		if n == name {
			return vt, nil
		}
	}
	return 0, ErrInvalidValueType
}

// Text is formatted display text. The raw content is kept verbatim.
type Text struct {
	raw string
}

// TextOf wraps raw as Text without parsing or escaping it.
func TextOf(raw string) Text {
	return Text{raw: raw}
}

// String returns the raw content.
func (t Text) String() string {
	return t.raw
}
