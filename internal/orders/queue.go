package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/rtdb"
	"github.com/matikep/heladoswilson/pkg/logger"
)

// ErrValidation marks user-input errors; the triggering action aborts
// before any write.
var ErrValidation = errors.New("invalid order")

// ErrNotFound is returned for unknown order ids.
var ErrNotFound = errors.New("order not found")

// ErrTerminalStatus is returned when confirming or rejecting an order
// that already left pending for the other terminal state.
var ErrTerminalStatus = errors.New("order already settled")

// EventSink receives serialized lifecycle events, fire-and-forget.
type EventSink interface {
	Publish(key, value []byte)
}

// Queue mirrors the shared order subtree and manages the order
// lifecycle. Orders are appended under provider-generated keys, so
// concurrent submissions never collide; status changes overwrite the
// single order child. The confirm sequence is two independent writes
// (stock decrement, then status) with no atomicity: an interruption in
// between leaves stock decremented while the order still reads pending,
// to be reconciled manually.
type Queue struct {
	store  rtdb.Store
	ledger *catalog.Ledger

	// Events, when non-nil, receives one envelope per lifecycle change.
	Events EventSink
	// Producer names this service in published envelopes.
	Producer string

	now func() time.Time

	mu     sync.RWMutex
	orders map[string]Order
}

func NewQueue(store rtdb.Store, ledger *catalog.Ledger) *Queue {
	return &Queue{
		store:  store,
		ledger: ledger,
		now:    time.Now,
		orders: make(map[string]Order),
	}
}

// Init loads the current order snapshot into the cache.
func (q *Queue) Init(ctx context.Context) error {
	snap, err := q.store.ReadSnapshot(ctx, rtdb.RootOrders)
	if err != nil {
		return fmt.Errorf("orders init: %w", err)
	}
	os, err := decodeOrders(snap)
	if err != nil {
		return fmt.Errorf("orders init: %w", err)
	}
	q.mu.Lock()
	q.orders = os
	q.mu.Unlock()
	return nil
}

// Watch follows order snapshots until ctx is cancelled.
func (q *Queue) Watch(ctx context.Context) error {
	snaps, err := q.store.Subscribe(ctx, rtdb.RootOrders)
	if err != nil {
		return fmt.Errorf("orders watch: %w", err)
	}
	for snap := range snaps {
		os, err := decodeOrders(snap)
		if err != nil {
			logger.Error().Err(err).Msg("bad orders snapshot, keeping previous")
			continue
		}
		q.mu.Lock()
		q.orders = os
		q.mu.Unlock()
	}
	return nil
}

func decodeOrders(snap json.RawMessage) (map[string]Order, error) {
	out := make(map[string]Order)
	if len(snap) == 0 || string(snap) == "null" {
		return out, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(snap, &raw); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	for key, b := range raw {
		var o Order
		if err := json.Unmarshal(b, &o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", key, err)
		}
		o.ID = key
		out[key] = o
	}
	return out, nil
}

// Submit validates the cart, captures the current product snapshot per
// item, computes the total and appends a pending order under a fresh
// key. The write is awaited so a failure reaches the customer before
// they navigate away.
func (q *Queue) Submit(ctx context.Context, customerName string, cart []CartItemInput) (Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return Order{}, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if len(cart) == 0 {
		return Order{}, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	items := make([]Item, 0, len(cart))
	total := 0
	for _, ci := range cart {
		if ci.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		p, ok := q.ledger.Get(ci.ProductID)
		if !ok {
			return Order{}, fmt.Errorf("%w: unknown product %d", ErrValidation, ci.ProductID)
		}
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Icon:      p.Icon,
			Quantity:  ci.Quantity,
		})
		total += p.Price * ci.Quantity
	}

	now := q.now()
	o := Order{
		CustomerName: customerName,
		Items:        items,
		Total:        total,
		Status:       StatusPending,
		Timestamp:    now.UnixMilli(),
		CreatedAt:    now.Format(time.RFC3339),
	}
	key, err := q.store.AppendUnique(ctx, rtdb.RootOrders, o)
	if err != nil {
		return Order{}, fmt.Errorf("submit order: %w", err)
	}
	o.ID = key

	q.mu.Lock()
	q.orders[key] = o
	q.mu.Unlock()

	q.publish(EventOrderSubmitted, o)
	return o, nil
}

// Confirm decrements stock for every item, then marks the order
// confirmed. Quantities are not validated against available stock at
// confirmation time; depleted products clamp at zero. Confirming an
// already confirmed order is a no-op so stock is never decremented
// twice.
func (q *Queue) Confirm(ctx context.Context, id string) (Order, error) {
	o, err := q.get(id)
	if err != nil {
		return Order{}, err
	}
	if o.Status == StatusConfirmed {
		return o, nil
	}
	if !CanTransition(o.Status, StatusConfirmed) {
		return Order{}, fmt.Errorf("%w: %s", ErrTerminalStatus, o.Status)
	}

	qty := make(map[int]int, len(o.Items))
	for _, it := range o.Items {
		qty[it.ProductID] += it.Quantity
	}
	if err := q.ledger.ApplyDecrements(ctx, qty); err != nil {
		return Order{}, fmt.Errorf("confirm order %s: %w", id, err)
	}
	return q.setStatus(ctx, o, StatusConfirmed, EventOrderConfirmed)
}

// Reject marks the order rejected; no stock change. Rejecting twice is
// idempotent.
func (q *Queue) Reject(ctx context.Context, id string) (Order, error) {
	o, err := q.get(id)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusRejected && !CanTransition(o.Status, StatusRejected) {
		return Order{}, fmt.Errorf("%w: %s", ErrTerminalStatus, o.Status)
	}
	return q.setStatus(ctx, o, StatusRejected, EventOrderRejected)
}

func (q *Queue) setStatus(ctx context.Context, o Order, s Status, event string) (Order, error) {
	o.Status = s
	if err := q.store.WriteSnapshot(ctx, rtdb.RootOrders+"/"+o.ID, o); err != nil {
		return Order{}, fmt.Errorf("order %s status: %w", o.ID, err)
	}
	q.mu.Lock()
	q.orders[o.ID] = o
	q.mu.Unlock()

	q.publish(event, o)
	return o, nil
}

// Remove deletes one order permanently.
func (q *Queue) Remove(ctx context.Context, id string) error {
	if _, err := q.get(id); err != nil {
		return err
	}
	if err := q.store.DeleteSubtree(ctx, rtdb.RootOrders+"/"+id); err != nil {
		return fmt.Errorf("remove order %s: %w", id, err)
	}
	q.mu.Lock()
	delete(q.orders, id)
	q.mu.Unlock()
	return nil
}

// RemoveAll deletes every order permanently. Irreversible; callers gate
// it behind an explicit confirmation.
func (q *Queue) RemoveAll(ctx context.Context) error {
	if err := q.store.DeleteSubtree(ctx, rtdb.RootOrders); err != nil {
		return fmt.Errorf("remove all orders: %w", err)
	}
	q.mu.Lock()
	q.orders = make(map[string]Order)
	q.mu.Unlock()
	return nil
}

func (q *Queue) get(id string) (Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	o, ok := q.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return o, nil
}

// Get returns one cached order.
func (q *Queue) Get(id string) (Order, bool) {
	o, err := q.get(id)
	return o, err == nil
}

// List returns the cached orders sorted by timestamp descending, the
// main display order.
func (q *Queue) List() []Order {
	q.mu.RLock()
	out := make([]Order, 0, len(q.orders))
	for _, o := range q.orders {
		out = append(out, o)
	}
	q.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (q *Queue) publish(event string, o Order) {
	if q.Events == nil {
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     event,
		EventVersion:  1,
		OccurredAt:    q.now().UTC(),
		Producer:      q.Producer,
		CorrelationID: o.ID,
	}
	payload, err := json.Marshal(OrderEventPayload{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Status:       o.Status,
		Total:        o.Total,
		Items:        o.Items,
	})
	if err != nil {
		logger.Error().Err(err).Str("order", o.ID).Msg("marshal event payload")
		return
	}
	env.Payload = payload
	b, err := json.Marshal(env)
	if err != nil {
		logger.Error().Err(err).Str("order", o.ID).Msg("marshal event envelope")
		return
	}
	q.Events.Publish(PartitionKey(o.ID), b)
}
