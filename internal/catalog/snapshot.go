package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks user-input errors that must abort before any write.
var ErrValidation = errors.New("invalid product")

// Fields carries a partial product update; nil members are left as-is.
type Fields struct {
	Name  *string
	Price *int
	Icon  *string
	Stock *int
}

// The functions below are pure: each takes the last observed snapshot and
// returns the next one. Callers overwrite the whole remote list with the
// result, so every mutation re-serializes the full catalog.

// SetStock replaces one product's stock, clamped at zero. Other products
// are copied unchanged.
func SetStock(ps []Product, id, stock int) []Product {
	out := make([]Product, len(ps))
	copy(out, ps)
	for i := range out {
		if out[i].ID == id {
			out[i].Stock = max(0, stock)
		}
	}
	return out
}

// ResetAll returns the snapshot with every stock set back to DefaultStock.
func ResetAll(ps []Product) []Product {
	out := make([]Product, len(ps))
	copy(out, ps)
	for i := range out {
		out[i].Stock = DefaultStock
	}
	return out
}

// NextID assigns max(existing)+1, or 1 for an empty catalog. Ids are not
// reused after deletion.
func NextID(ps []Product) int {
	next := 1
	for _, p := range ps {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// Add validates and appends a new product with a freshly assigned id.
func Add(ps []Product, p Product) ([]Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	p.ID = NextID(ps)
	p.Stock = max(0, p.Stock)
	out := make([]Product, len(ps), len(ps)+1)
	copy(out, ps)
	return append(out, p), nil
}

// Update merges the given fields into the matching product. Unknown ids
// are a no-op.
func Update(ps []Product, id int, f Fields) []Product {
	out := make([]Product, len(ps))
	copy(out, ps)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if f.Name != nil {
			out[i].Name = *f.Name
		}
		if f.Price != nil {
			out[i].Price = *f.Price
		}
		if f.Icon != nil {
			out[i].Icon = *f.Icon
		}
		if f.Stock != nil {
			out[i].Stock = max(0, *f.Stock)
		}
	}
	return out
}

// Remove filters the product out of the list.
func Remove(ps []Product, id int) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Decrement subtracts confirmed quantities per product id, clamping at
// zero. Quantities are not checked against available stock: confirming
// more than is on hand silently under-counts depletion.
func Decrement(ps []Product, qty map[int]int) []Product {
	out := make([]Product, len(ps))
	copy(out, ps)
	for i := range out {
		if n, ok := qty[out[i].ID]; ok {
			out[i].Stock = max(0, out[i].Stock-n)
		}
	}
	return out
}
