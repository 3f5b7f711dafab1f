package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexInt decodes a JSON number or a numeric string into an int.
// Unparseable input is recorded as present but invalid instead of failing
// the whole body, so callers choose how strict to be per operation.
type FlexInt struct {
	Present bool
	Null    bool
	Valid   bool
	Value   int
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{Present: true}
	raw, isNull := flexRaw(data)
	if isNull {
		f.Null = true
		return nil
	}
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		f.Valid, f.Value = true, n
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	if parsed > math.MaxInt32 || parsed < math.MinInt32 {
		return nil
	}
	f.Valid, f.Value = true, int(math.Trunc(parsed))
	return nil
}

// Set reports whether the field carried a non-null value.
func (f FlexInt) Set() bool {
	return f.Present && !f.Null
}

// FlexDecimal decodes a JSON number or a numeric string into a decimal.
type FlexDecimal struct {
	Present bool
	Null    bool
	Valid   bool
	Value   decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	*f = FlexDecimal{Present: true}
	raw, isNull := flexRaw(data)
	if isNull {
		f.Null = true
		return nil
	}
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	f.Valid, f.Value = true, d
	return nil
}

// Set reports whether the field carried a non-null value.
func (f FlexDecimal) Set() bool {
	return f.Present && !f.Null
}

// flexRaw returns the textual content of a JSON number or string token.
// Any other token yields an empty string.
func flexRaw(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", true
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), false
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(trimmed), false
	}
	return "", false
}

// FlexString decodes a JSON string or number into its text. Numbers keep
// their literal spelling, so 1 and "1" decode to the same Value.
type FlexString struct {
	Present bool
	Null    bool
	Valid   bool
	Number  bool
	Value   string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString{Present: true}
	trimmed := bytes.TrimSpace(data)
	raw, isNull := flexRaw(trimmed)
	switch {
	case isNull:
		f.Null = true
	case len(trimmed) > 0 && trimmed[0] == '"':
		f.Valid, f.Value = true, raw
	case raw != "":
		f.Valid, f.Number, f.Value = true, true, raw
	}
	return nil
}

// Truthy reports whether the field holds a usable identifier: a non-blank
// string or a non-zero number.
func (f FlexString) Truthy() bool {
	if !f.Valid || f.Value == "" {
		return false
	}
	if f.Number {
		d, err := decimal.NewFromString(f.Value)
		return err == nil && !d.IsZero()
	}
	return true
}
