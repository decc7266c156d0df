// Package jsonutil contains JSON normalization helpers for event payloads.
//
// Producers on the other side of the queues are not uniform about numeric
// encoding: some emit amounts and quantities as JSON numbers, others as
// decimal strings. Number accepts both on the way in and always emits a plain
// JSON number on the way out, so every payload this core republishes carries
// normalized numerics.
package jsonutil

import (
	"bytes"
	"fmt"
	"strconv"

	"grubdash/internal/pkg/errs"
)

// Number is a float64 that unmarshals from either a JSON number or a
// numeric string ("25.00"). null decodes to zero.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return errs.NewValueIsInvalidErrorWithCause("number", err)
		}
		data = []byte(unquoted)
	}

	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("number", fmt.Errorf("%q is not numeric", data))
	}

	*n = Number(value)
	return nil
}

// MarshalJSON implements json.Marshaler, always emitting a plain JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(n), 'f', -1, 64)), nil
}

// Float64 returns the plain float value.
func (n Number) Float64() float64 {
	return float64(n)
}

// Int returns the value truncated toward zero, for count-like fields.
func (n Number) Int() int {
	return int(n)
}
