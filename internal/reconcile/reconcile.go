// Package reconcile holds the pure derived-state computations shown on
// the two screens: stock badges, "today" grouping and arrival sequence
// numbers. Nothing here has side effects or persists anything.
package reconcile

import (
	"sort"
	"time"

	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/orders"
)

type StockLevel string

const (
	OutOfStock StockLevel = "out of stock"
	LowStock   StockLevel = "low stock"
	InStock    StockLevel = "in stock"
)

// lowStockThreshold: below this a product shows the low-stock badge.
const lowStockThreshold = 5

// ClassifyStock maps a product to its display badge. Boundaries are
// fixed: 0 is out, 1-4 low, 5 and up in stock.
func ClassifyStock(p catalog.Product) StockLevel {
	switch {
	case p.Stock == 0:
		return OutOfStock
	case p.Stock < lowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// IsToday reports whether the epoch-millis timestamp falls on the same
// calendar day as now, in the local timezone of the evaluating client.
// Deliberately not normalized: "today" is a client-local notion.
func IsToday(timestampMillis int64, now time.Time) bool {
	t := time.UnixMilli(timestampMillis).In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Groups are the six display buckets of the admin order view. Every
// order lands in exactly one: status × today/earlier, except rejected
// orders collapse the date axis.
type Groups struct {
	PendingToday     []orders.Order `json:"pending_today"`
	PendingEarlier   []orders.Order `json:"pending_earlier"`
	ConfirmedToday   []orders.Order `json:"confirmed_today"`
	ConfirmedEarlier []orders.Order `json:"confirmed_earlier"`
	Rejected         []orders.Order `json:"rejected"`
}

// GroupOrders partitions the order set for display. Input order is
// preserved within each bucket.
func GroupOrders(os []orders.Order, now time.Time) Groups {
	var g Groups
	for _, o := range os {
		today := IsToday(o.Timestamp, now)
		switch {
		case o.Status == orders.StatusRejected:
			g.Rejected = append(g.Rejected, o)
		case o.Status == orders.StatusPending && today:
			g.PendingToday = append(g.PendingToday, o)
		case o.Status == orders.StatusPending:
			g.PendingEarlier = append(g.PendingEarlier, o)
		case today:
			g.ConfirmedToday = append(g.ConfirmedToday, o)
		default:
			g.ConfirmedEarlier = append(g.ConfirmedEarlier, o)
		}
	}
	return g
}

// SequenceNumbers assigns each order its 1-based arrival position:
// ascending by timestamp over the current order set. Never persisted, so
// positions shift when orders are deleted. An arrival label, not an
// identifier.
func SequenceNumbers(os []orders.Order) map[string]int {
	sorted := make([]orders.Order, len(os))
	copy(sorted, os)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].ID < sorted[j].ID
	})
	seq := make(map[string]int, len(sorted))
	for i, o := range sorted {
		seq[o.ID] = i + 1
	}
	return seq
}
