package position

import (
	"cmp"
	"slices"

	"tradeLog/internal/domain"
)

// Chronological returns the orders sorted ascending by execution time.
// Orders executed at the same instant are ordered by ascending ID; orders that
// also share an ID keep their input order. The input slice is not modified.
func Chronological(orders []*domain.Order) []*domain.Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b *domain.Order) int {
		if c := a.ExecutedAt.Compare(b.ExecutedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}
