package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the single currency every amount is expressed in.
const Currency = "PHP"

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Amount is a money value in Currency. Like Quantity it is lenient on input:
// numbers and numeric strings parse, anything else is zero.
type Amount struct {
	d decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d}
}

func AmountFromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// ParseAmount reads the leading decimal number of s. "12.50 PHP" is 12.50.
func ParseAmount(s string) Amount {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return Amount{}
	}
	return Amount{d: d}
}

func (a Amount) Decimal() decimal.Decimal { return a.d }
func (a Amount) IsZero() bool             { return a.d.IsZero() }
func (a Amount) Add(b Amount) Amount      { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Times(n int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))}
}

// Percent returns p percent of a, rounded to centavos.
func (a Amount) Percent(p int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(p)).Div(decimal.NewFromInt(100)).Round(2)}
}

func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

func (a Amount) String() string {
	return a.d.StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount{}
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	*a = ParseAmount(string(data))
	return nil
}
