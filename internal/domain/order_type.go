package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrderType is returned when an order carries a type outside the
// four supported execution types.
var ErrInvalidOrderType = errors.New("invalid order type")

// OrderType represents the directional character of an execution.
type OrderType string

const (
	Buy        OrderType = "BUY"
	Sell       OrderType = "SELL"
	SellShort  OrderType = "SELL_SHORT"
	BuyToCover OrderType = "BUY_TO_COVER"
)

// OrderTypes lists every accepted order type in display order.
var OrderTypes = []OrderType{Buy, Sell, SellShort, BuyToCover}

// ParseOrderType converts a user or storage supplied value into an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	t := OrderType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderType, s)
	}
	return t, nil
}

// Valid reports whether t is one of the four supported types.
func (t OrderType) Valid() bool {
	switch t {
	case Buy, Sell, SellShort, BuyToCover:
		return true
	}
	return false
}

// IsOpening reports whether the order establishes new exposure (Buy, SellShort).
func (t OrderType) IsOpening() bool {
	return t == Buy || t == SellShort
}

// IsBuyClass reports whether the order pays cash out (Buy, BuyToCover).
func (t OrderType) IsBuyClass() bool {
	return t == Buy || t == BuyToCover
}

// IsShortSide reports whether the order belongs to the short side of the book.
func (t OrderType) IsShortSide() bool {
	return t == SellShort || t == BuyToCover
}

func (t OrderType) String() string {
	return string(t)
}
