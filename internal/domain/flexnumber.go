package domain

import (
	"bytes"
	"strconv"
)

// FlexNumber is a JSON field that the remote service may deliver as a
// number, a numeric string, null, or something else entirely. Anything
// non-numeric decodes as "absent" rather than failing the whole payload.
type FlexNumber struct {
	value float64
	valid bool
}

// NewFlexNumber returns a present FlexNumber holding v. Used in tests and
// when building payloads locally.
func NewFlexNumber(v float64) FlexNumber {
	return FlexNumber{value: v, valid: true}
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = FlexNumber{}
		return nil
	}

	raw := string(data)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			*n = FlexNumber{}
			return nil
		}
		raw = unquoted
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Tolerated: booleans, objects, junk strings all read as absent.
		*n = FlexNumber{}
		return nil
	}
	*n = FlexNumber{value: v, valid: true}
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.value, 'f', -1, 64)), nil
}

// Float64 reports the value and whether it was present and numeric.
func (n FlexNumber) Float64() (float64, bool) {
	return n.value, n.valid
}

// Or returns the value, or fallback when absent.
func (n FlexNumber) Or(fallback float64) float64 {
	if !n.valid {
		return fallback
	}
	return n.value
}

// Int truncates the value to an int, or returns fallback when absent.
func (n FlexNumber) Int(fallback int) int {
	if !n.valid {
		return fallback
	}
	return int(n.value)
}

// ResolveCODFee applies the fee fallback chain: the primary field wins when
// numeric, then the legacy field, then zero. Negative values read as zero.
func ResolveCODFee(primary, legacy FlexNumber) float64 {
	if v, ok := primary.Float64(); ok && v >= 0 {
		return v
	}
	if v, ok := legacy.Float64(); ok && v >= 0 {
		return v
	}
	return 0
}
