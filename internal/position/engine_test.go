package position

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeLog/internal/domain"
)

var (
	t0  = time.Date(2024, 1, 2, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

// px converts whole currency units to Money.
func px(units int64) domain.Money {
	return domain.Money(units * domain.MoneyScale)
}

func order(id int64, typ domain.OrderType, qty int64, price domain.Money, at time.Duration) *domain.Order {
	return &domain.Order{
		ID:         id,
		TradeID:    1,
		AccountID:  1,
		ExecutedAt: t0.Add(at),
		Type:       typ,
		Quantity:   qty,
		Price:      price,
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		orders []*domain.Order
		want   domain.TradeSnapshot
	}{
		{
			name: "round trip long",
			orders: []*domain.Order{
				order(1, domain.Buy, 10, px(10), 0),
				order(2, domain.Sell, 10, px(12), time.Hour),
			},
			want: domain.TradeSnapshot{
				FirstOrderDate: t0,
				LastOrderDate:  t0.Add(time.Hour),
				AvgBuyPrice:    px(10),
				AvgSellPrice:   px(12),
				Profit:         2000000,
				Quantity:       10,
				OrdersCount:    2,
			},
		},
		{
			name: "single short sale",
			orders: []*domain.Order{
				order(1, domain.SellShort, 5, px(20), 0),
			},
			want: domain.TradeSnapshot{
				FirstOrderDate:      t0,
				LastOrderDate:       t0,
				IsShort:             true,
				AvgSellPrice:        px(20),
				Profit:              10000000,
				Quantity:            5,
				QuantityOutstanding: -5,
				OrdersCount:         1,
			},
		},
		{
			name: "open long is valued at cost",
			orders: []*domain.Order{
				order(1, domain.Buy, 10, px(10), 0),
			},
			want: domain.TradeSnapshot{
				FirstOrderDate:      t0,
				LastOrderDate:       t0,
				AvgBuyPrice:         px(10),
				Profit:              0,
				Quantity:            10,
				QuantityOutstanding: 10,
				OrdersCount:         1,
			},
		},
		{
			name: "partial exit with two entries",
			orders: []*domain.Order{
				order(1, domain.Buy, 10, px(10), 0),
				order(2, domain.Buy, 5, px(12), time.Minute),
				order(3, domain.Sell, 5, px(15), 2*time.Minute),
			},
			want: domain.TradeSnapshot{
				FirstOrderDate:      t0,
				LastOrderDate:       t0.Add(2 * time.Minute),
				AvgBuyPrice:         px(11),
				AvgSellPrice:        px(15),
				Profit:              px(75),
				Quantity:            15,
				QuantityOutstanding: 10,
				OrdersCount:         3,
			},
		},
		{
			name: "partial cover with commissions",
			orders: []*domain.Order{
				{ID: 1, ExecutedAt: t0, Type: domain.SellShort, Quantity: 10, Price: px(20), Commission: 150000},
				{ID: 2, ExecutedAt: t0.Add(time.Hour), Type: domain.BuyToCover, Quantity: 4, Price: px(18), Commission: 150000},
			},
			want: domain.TradeSnapshot{
				FirstOrderDate:      t0,
				LastOrderDate:       t0.Add(time.Hour),
				Commissions:         300000,
				IsShort:             true,
				AvgBuyPrice:         px(18),
				AvgSellPrice:        px(20),
				Profit:              px(128),
				Quantity:            10,
				QuantityOutstanding: -6,
				OrdersCount:         2,
			},
		},
		{
			name: "buy then short sale",
			orders: []*domain.Order{
				order(1, domain.Buy, 10, px(10), 0),
				order(2, domain.SellShort, 2, px(20), time.Minute),
			},
			want: domain.TradeSnapshot{
				FirstOrderDate:      t0,
				LastOrderDate:       t0.Add(time.Minute),
				IsShort:             true,
				AvgBuyPrice:         px(10),
				AvgSellPrice:        px(20),
				Profit:              px(60),
				Quantity:            12,
				QuantityOutstanding: 8,
				OrdersCount:         2,
			},
		},
		{
			name: "short sale then buy",
			orders: []*domain.Order{
				order(1, domain.SellShort, 2, px(20), 0),
				order(2, domain.Buy, 10, px(10), time.Minute),
			},
			want: domain.TradeSnapshot{
				FirstOrderDate:      t0,
				LastOrderDate:       t0.Add(time.Minute),
				IsShort:             false,
				AvgBuyPrice:         px(10),
				AvgSellPrice:        px(20),
				Profit:              px(40),
				Quantity:            12,
				QuantityOutstanding: 8,
				OrdersCount:         2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.orders, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute_Empty(t *testing.T) {
	got, err := Compute(nil, now)
	require.NoError(t, err)
	assert.Equal(t, domain.EmptySnapshot(now), got)
	assert.Zero(t, got.OrdersCount)
	assert.Zero(t, got.Profit)
}

func TestCompute_InputOrderDoesNotMatter(t *testing.T) {
	orders := []*domain.Order{
		order(1, domain.Buy, 10, px(10), 0),
		order(2, domain.Buy, 3, 1234567, time.Minute),
		order(3, domain.SellShort, 4, px(21), 2*time.Minute),
		order(4, domain.Sell, 6, px(13), 3*time.Minute),
		order(5, domain.BuyToCover, 2, px(19), 4*time.Minute),
		order(6, domain.Sell, 1, px(14), 4*time.Minute), // same instant as 5
	}
	want, err := Compute(orders, now)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]*domain.Order(nil), orders...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Compute(shuffled, now)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.False(t, want.IsShort, "last order by time then id is the Sell")
}

func TestCompute_IsShortFollowsLastOrder(t *testing.T) {
	tests := []struct {
		last domain.OrderType
		want bool
	}{
		{domain.Buy, false},
		{domain.Sell, false},
		{domain.SellShort, true},
		{domain.BuyToCover, true},
	}
	for _, tt := range tests {
		t.Run(tt.last.String(), func(t *testing.T) {
			orders := []*domain.Order{
				order(1, domain.SellShort, 5, px(20), 0),
				order(2, domain.Buy, 5, px(10), time.Minute),
				order(3, tt.last, 1, px(15), 2*time.Minute),
			}
			got, err := Compute(orders, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.IsShort)
		})
	}
}

func TestCompute_EmptyBuyBucket(t *testing.T) {
	orders := []*domain.Order{
		order(1, domain.SellShort, 5, px(20), 0),
		order(2, domain.Sell, 5, px(22), time.Minute),
	}
	got, err := Compute(orders, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), got.AvgBuyPrice)
	assert.Equal(t, px(21), got.AvgSellPrice)
}

func TestCompute_Idempotent(t *testing.T) {
	orders := []*domain.Order{
		order(1, domain.Buy, 7, 1033333, 0),
		order(2, domain.Sell, 3, 1166667, time.Minute),
	}
	first, err := Compute(orders, now)
	require.NoError(t, err)
	second, err := Compute(orders, now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_Overflow(t *testing.T) {
	orders := []*domain.Order{
		order(1, domain.Buy, 3, domain.Money(math.MaxInt64/2), 0),
	}
	_, err := Compute(orders, now)
	assert.ErrorIs(t, err, domain.ErrOverflow)
}

func TestCompute_InvalidType(t *testing.T) {
	orders := []*domain.Order{
		order(1, domain.OrderType("HOLD"), 1, px(1), 0),
	}
	_, err := Compute(orders, now)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderType)
}

func TestCompute_DoesNotReorderInput(t *testing.T) {
	orders := []*domain.Order{
		order(2, domain.Sell, 1, px(12), time.Hour),
		order(1, domain.Buy, 1, px(10), 0),
	}
	_, err := Compute(orders, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), orders[0].ID)
}
