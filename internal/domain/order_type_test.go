package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderType(t *testing.T) {
	for _, ot := range OrderTypes {
		got, err := ParseOrderType(string(ot))
		require.NoError(t, err)
		assert.Equal(t, ot, got)
	}

	got, err := ParseOrderType(" sell_short ")
	require.NoError(t, err)
	assert.Equal(t, SellShort, got)

	_, err = ParseOrderType("SHORT")
	assert.ErrorIs(t, err, ErrInvalidOrderType)
}

func TestOrderType_Classes(t *testing.T) {
	tests := []struct {
		t        OrderType
		opening  bool
		buyClass bool
		short    bool
	}{
		{Buy, true, true, false},
		{Sell, false, false, false},
		{SellShort, true, false, true},
		{BuyToCover, false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.t.String(), func(t *testing.T) {
			assert.Equal(t, tt.opening, tt.t.IsOpening())
			assert.Equal(t, tt.buyClass, tt.t.IsBuyClass())
			assert.Equal(t, tt.short, tt.t.IsShortSide())
			assert.True(t, tt.t.Valid())
		})
	}
	assert.False(t, OrderType("HOLD").Valid())
}
