package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/matikep/heladoswilson/internal/rtdb"
	"github.com/matikep/heladoswilson/pkg/logger"
)

// Ledger mirrors the shared catalog subtree. Every mutation is
// read-modify-write on the full snapshot: take the last cached list,
// compute the next one, unconditionally overwrite the remote subtree.
// There is no compare-and-swap: two administrators editing concurrently
// are last-write-wins at subtree granularity, one edit silently lost.
type Ledger struct {
	store rtdb.Store

	mu       sync.RWMutex
	products []Product
}

func NewLedger(store rtdb.Store) *Ledger {
	return &Ledger{store: store}
}

// Init loads the current catalog snapshot and, when the subtree is empty
// or absent, seeds it with the default catalog and persists the seed
// immediately. Two clients seeding concurrently both write the same
// list; the race is tolerated.
func (l *Ledger) Init(ctx context.Context) error {
	snap, err := l.store.ReadSnapshot(ctx, rtdb.RootStock)
	if err != nil {
		return fmt.Errorf("catalog init: %w", err)
	}
	ps, err := decodeProducts(snap)
	if err != nil {
		return fmt.Errorf("catalog init: %w", err)
	}
	if len(ps) == 0 {
		ps = DefaultProducts()
		if err := l.store.WriteSnapshot(ctx, rtdb.RootStock, ps); err != nil {
			return fmt.Errorf("catalog seed: %w", err)
		}
		logger.Info().Int("products", len(ps)).Msg("seeded default catalog")
	}
	l.mu.Lock()
	l.products = ps
	l.mu.Unlock()
	return nil
}

// Watch follows catalog snapshots until ctx is cancelled, keeping the
// local cache in line with whatever write landed last.
func (l *Ledger) Watch(ctx context.Context) error {
	snaps, err := l.store.Subscribe(ctx, rtdb.RootStock)
	if err != nil {
		return fmt.Errorf("catalog watch: %w", err)
	}
	for snap := range snaps {
		ps, err := decodeProducts(snap)
		if err != nil {
			logger.Error().Err(err).Msg("bad catalog snapshot, keeping previous")
			continue
		}
		l.mu.Lock()
		l.products = ps
		l.mu.Unlock()
	}
	return nil
}

func decodeProducts(snap json.RawMessage) ([]Product, error) {
	var ps []Product
	if len(snap) == 0 || string(snap) == "null" {
		return nil, nil
	}
	if err := json.Unmarshal(snap, &ps); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return ps, nil
}

// Products returns a copy of the last observed snapshot.
func (l *Ledger) Products() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Product, len(l.products))
	copy(out, l.products)
	return out
}

// Get looks a product up in the cached snapshot.
func (l *Ledger) Get(id int) (Product, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// apply computes the next snapshot from the cached one and overwrites the
// remote list. The cache is updated optimistically; the subscription
// delivers the authoritative result right after.
func (l *Ledger) apply(ctx context.Context, next func([]Product) ([]Product, error)) ([]Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ps, err := next(l.products)
	if err != nil {
		return nil, err
	}
	if err := l.store.WriteSnapshot(ctx, rtdb.RootStock, ps); err != nil {
		return nil, fmt.Errorf("catalog write: %w", err)
	}
	l.products = ps
	return ps, nil
}

// SetStock clamps and stores a product's stock.
func (l *Ledger) SetStock(ctx context.Context, id, stock int) error {
	_, err := l.apply(ctx, func(ps []Product) ([]Product, error) {
		return SetStock(ps, id, stock), nil
	})
	return err
}

// ResetAll puts every product back at the default stock. Irreversible;
// callers gate it behind an explicit confirmation.
func (l *Ledger) ResetAll(ctx context.Context) error {
	_, err := l.apply(ctx, func(ps []Product) ([]Product, error) {
		return ResetAll(ps), nil
	})
	return err
}

// Add validates and appends a product, returning it with its assigned id.
func (l *Ledger) Add(ctx context.Context, p Product) (Product, error) {
	ps, err := l.apply(ctx, func(ps []Product) ([]Product, error) {
		return Add(ps, p)
	})
	if err != nil {
		return Product{}, err
	}
	return ps[len(ps)-1], nil
}

// Update merges fields into the matching product; unknown ids no-op.
func (l *Ledger) Update(ctx context.Context, id int, f Fields) error {
	_, err := l.apply(ctx, func(ps []Product) ([]Product, error) {
		return Update(ps, id, f), nil
	})
	return err
}

// Remove deletes a product permanently. Orders that captured it keep
// their snapshot of name, price and icon.
func (l *Ledger) Remove(ctx context.Context, id int) error {
	_, err := l.apply(ctx, func(ps []Product) ([]Product, error) {
		return Remove(ps, id), nil
	})
	return err
}

// ApplyDecrements subtracts confirmed order quantities from stock.
func (l *Ledger) ApplyDecrements(ctx context.Context, qty map[int]int) error {
	_, err := l.apply(ctx, func(ps []Product) ([]Product, error) {
		return Decrement(ps, qty), nil
	})
	return err
}
