package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validOrder() Order {
	return Order{
		TradeID:    1,
		AccountID:  1,
		ExecutedAt: time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC),
		Type:       Buy,
		Quantity:   10,
		Price:      1000000,
	}
}

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{name: "valid", mutate: func(o *Order) {}},
		{name: "unknown type", mutate: func(o *Order) { o.Type = "HOLD" }, wantErr: true},
		{name: "zero quantity", mutate: func(o *Order) { o.Quantity = 0 }, wantErr: true},
		{name: "negative price", mutate: func(o *Order) { o.Price = -1 }, wantErr: true},
		{name: "negative commission", mutate: func(o *Order) { o.Commission = -1 }, wantErr: true},
		{name: "missing trade", mutate: func(o *Order) { o.TradeID = 0 }, wantErr: true},
		{name: "missing time", mutate: func(o *Order) { o.ExecutedAt = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrderEdit_Apply(t *testing.T) {
	o := validOrder()
	qty := int64(3)
	typ := SellShort
	edited := OrderEdit{Quantity: &qty, Type: &typ}.Apply(o)

	assert.Equal(t, int64(3), edited.Quantity)
	assert.Equal(t, SellShort, edited.Type)
	assert.Equal(t, o.Price, edited.Price)
	assert.Equal(t, int64(10), o.Quantity, "original must stay untouched")
	assert.True(t, OrderEdit{}.IsEmpty())
	assert.False(t, OrderEdit{Quantity: &qty}.IsEmpty())
}

func TestTrade_Validate(t *testing.T) {
	tr := Trade{AccountID: 1, Symbol: "AAPL"}
	assert.NoError(t, tr.Validate())

	tr.Symbol = ""
	assert.ErrorIs(t, tr.Validate(), ErrValidation)
}
