package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal money or percentage value with permissive decoding.
//
// Order documents arrive from a loosely typed store: numbers, numeric strings,
// nulls and {"$numberDecimal": "..."} wrappers all occur. Anything that is not
// a number decodes to zero instead of failing the whole order.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a float literal. Intended for tests and constants.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// AmountOf wraps an existing decimal.
func AmountOf(d decimal.Decimal) Amount {
	return Amount{d}
}

// ParseAmount parses s, returning zero for empty or non-numeric input.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{d}
}

// extendedJSONKeys are the wrapper keys a document store may emit for numbers.
var extendedJSONKeys = []string{"$numberDecimal", "$numberDouble", "$numberLong", "$numberInt"}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = decodeAmount(data)
	return nil
}

func decodeAmount(data []byte) Amount {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Amount{}
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Amount{}
		}
		return ParseAmount(s)
	case '{':
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return Amount{}
		}
		for _, key := range extendedJSONKeys {
			if raw, ok := wrapped[key]; ok {
				return decodeAmount(raw)
			}
		}
		return Amount{}
	default:
		return ParseAmount(string(data))
	}
}

// Quantity is a unit count with the same permissive decoding as Amount.
// Fractional input is truncated.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity(decodeAmount(data).IntPart())
	return nil
}

// Decimal returns the quantity as a decimal multiplier.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}
