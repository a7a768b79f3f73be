package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SessionID identifies a browser's cart on the backend.
type SessionID string

func (s SessionID) String() string {
	return string(s)
}

// Cart is the server-owned cart snapshot as returned by GET /cart/{sessionId}.
type Cart struct {
	ID        string     `json:"_id,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
	Items     []CartItem `json:"items"`
	Total     Amount     `json:"total"`
}

type CartItem struct {
	ID       string     `json:"_id"`
	Product  ProductRef `json:"productId"`
	Price    Amount     `json:"price"`
	Quantity Quantity   `json:"quantity"`
}

// ItemCount sums the quantities that count for display.
// Invalid quantities contribute nothing.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		if item.Quantity.Valid() {
			total += item.Quantity.Int()
		}
	}
	return total
}

// ValidItems returns the items whose quantity is a positive integer.
func (c *Cart) ValidItems() []CartItem {
	if c == nil {
		return nil
	}
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity.Valid() {
			items = append(items, item)
		}
	}
	return items
}

// IsEmpty reports whether the cart has nothing displayable.
func (c *Cart) IsEmpty() bool {
	return len(c.ValidItems()) == 0
}

// Quantity is a cart line quantity as sent by the backend. The backend is not
// strict about the JSON type, so numbers and numeric strings are both accepted
// and anything else reads as zero.
type Quantity struct {
	n int
}

func NewQuantity(n int) Quantity {
	return Quantity{n: n}
}

func (q Quantity) Int() int {
	return q.n
}

// Valid reports whether the quantity is a positive integer.
func (q Quantity) Valid() bool {
	return q.n > 0
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(q.n)), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		q.n = 0
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			q.n = 0
			return nil
		}
		q.n = ParseQuantity(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			q.n = 0
			return nil
		}
		q.n = int(f)
	default:
		q.n = 0
	}
	return nil
}

// ParseQuantity reads the leading integer of s, ignoring surrounding
// whitespace and any trailing garbage ("3 pcs" is 3, "abc" is 0).
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return sign * n
}
