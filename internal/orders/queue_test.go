package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matikep/heladoswilson/internal/catalog"
	"github.com/matikep/heladoswilson/internal/rtdb"
)

func newQueue(t *testing.T) (*Queue, *catalog.Ledger, *rtdb.Memory) {
	t.Helper()
	ctx := context.Background()
	store := rtdb.NewMemory()
	ledger := catalog.NewLedger(store)
	require.NoError(t, ledger.Init(ctx)) // seeds the five defaults, stock 10
	q := NewQueue(store, ledger)
	require.NoError(t, q.Init(ctx))
	return q, ledger, store
}

func cartFor(items ...CartItemInput) []CartItemInput { return items }

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("ComputesTotalAndStartsPending", func(t *testing.T) {
		q, _, _ := newQueue(t)
		o, err := q.Submit(ctx, "  Wilson  ", cartFor(
			CartItemInput{ProductID: 1, Quantity: 2}, // Chocolate 600
			CartItemInput{ProductID: 3, Quantity: 1}, // Manjarate 700
		))
		require.NoError(t, err)
		assert.Equal(t, "Wilson", o.CustomerName)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, 2*600+700, o.Total)
		assert.NotEmpty(t, o.ID)
		assert.NotZero(t, o.Timestamp)

		sum := 0
		for _, it := range o.Items {
			sum += it.Price * it.Quantity
		}
		assert.Equal(t, o.Total, sum)
	})

	t.Run("CapturesProductSnapshot", func(t *testing.T) {
		q, ledger, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)

		// reprice and delete after submission; the order keeps its capture
		newPrice := 999
		require.NoError(t, ledger.Update(ctx, 1, catalog.Fields{Price: &newPrice}))
		require.NoError(t, ledger.Remove(ctx, 1))

		got, ok := q.Get(o.ID)
		require.True(t, ok)
		assert.Equal(t, "Chocolate", got.Items[0].Name)
		assert.Equal(t, 600, got.Items[0].Price)
	})

	t.Run("ConcurrentSubmissionsNeverCollide", func(t *testing.T) {
		q, _, _ := newQueue(t)
		a, err := q.Submit(ctx, "Ana", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		b, err := q.Submit(ctx, "Beto", cartFor(CartItemInput{ProductID: 2, Quantity: 1}))
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
		assert.Len(t, q.List(), 2)
	})

	t.Run("Validation", func(t *testing.T) {
		q, _, _ := newQueue(t)
		cases := []struct {
			name     string
			customer string
			cart     []CartItemInput
		}{
			{"EmptyName", "   ", cartFor(CartItemInput{ProductID: 1, Quantity: 1})},
			{"EmptyCart", "Wilson", nil},
			{"ZeroQuantity", "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 0})},
			{"UnknownProduct", "Wilson", cartFor(CartItemInput{ProductID: 99, Quantity: 1})},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := q.Submit(ctx, tc.customer, tc.cart)
				require.ErrorIs(t, err, ErrValidation)
			})
		}
		// nothing was written
		assert.Empty(t, q.List())
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("DecrementsStockThenMarksConfirmed", func(t *testing.T) {
		q, ledger, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 3}))
		require.NoError(t, err)

		got, err := q.Confirm(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, got.Status)

		p, ok := ledger.Get(1)
		require.True(t, ok)
		assert.Equal(t, 7, p.Stock)
	})

	t.Run("SecondConfirmDoesNotDecrementAgain", func(t *testing.T) {
		q, ledger, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 3}))
		require.NoError(t, err)

		_, err = q.Confirm(ctx, o.ID)
		require.NoError(t, err)
		got, err := q.Confirm(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, got.Status)

		p, _ := ledger.Get(1)
		assert.Equal(t, 7, p.Stock)
	})

	t.Run("OverConfirmationClampsAtZero", func(t *testing.T) {
		q, ledger, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 2, Quantity: 25}))
		require.NoError(t, err)
		_, err = q.Confirm(ctx, o.ID)
		require.NoError(t, err)

		p, _ := ledger.Get(2)
		assert.Equal(t, 0, p.Stock)
	})

	t.Run("RejectedOrderCannotBeConfirmed", func(t *testing.T) {
		q, ledger, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		_, err = q.Reject(ctx, o.ID)
		require.NoError(t, err)

		_, err = q.Confirm(ctx, o.ID)
		require.ErrorIs(t, err, ErrTerminalStatus)
		p, _ := ledger.Get(1)
		assert.Equal(t, 10, p.Stock)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		q, _, _ := newQueue(t)
		_, err := q.Confirm(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("NoStockChange", func(t *testing.T) {
		q, ledger, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 4}))
		require.NoError(t, err)

		got, err := q.Reject(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Status)
		p, _ := ledger.Get(1)
		assert.Equal(t, 10, p.Stock)
	})

	t.Run("Idempotent", func(t *testing.T) {
		q, _, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)

		_, err = q.Reject(ctx, o.ID)
		require.NoError(t, err)
		got, err := q.Reject(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Status)
	})

	t.Run("ConfirmedOrderCannotBeRejected", func(t *testing.T) {
		q, _, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		_, err = q.Confirm(ctx, o.ID)
		require.NoError(t, err)

		_, err = q.Reject(ctx, o.ID)
		require.ErrorIs(t, err, ErrTerminalStatus)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("One", func(t *testing.T) {
		q, _, _ := newQueue(t)
		o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
		require.NoError(t, q.Remove(ctx, o.ID))
		_, ok := q.Get(o.ID)
		assert.False(t, ok)
	})

	t.Run("All", func(t *testing.T) {
		q, _, _ := newQueue(t)
		for i := 0; i < 3; i++ {
			_, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
			require.NoError(t, err)
		}
		require.NoError(t, q.RemoveAll(ctx))
		assert.Empty(t, q.List())
	})
}

func TestListSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newQueue(t)

	ts := []time.Time{
		time.UnixMilli(100),
		time.UnixMilli(300),
		time.UnixMilli(200),
	}
	i := 0
	q.now = func() time.Time { v := ts[i]; i++; return v }

	for range ts {
		_, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
	}

	got := q.List()
	require.Len(t, got, 3)
	assert.Equal(t, int64(300), got[0].Timestamp)
	assert.Equal(t, int64(200), got[1].Timestamp)
	assert.Equal(t, int64(100), got[2].Timestamp)
}

type sinkFunc func(key, value []byte)

func (f sinkFunc) Publish(key, value []byte) { f(key, value) }

func TestLifecycleEventsPublished(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newQueue(t)
	q.Producer = "test-admin"

	var events []string
	q.Events = sinkFunc(func(key, value []byte) {
		events = append(events, string(key))
	})

	o, err := q.Submit(ctx, "Wilson", cartFor(CartItemInput{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	_, err = q.Confirm(ctx, o.ID)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, o.ID, events[0])
	assert.Equal(t, o.ID, events[1])
}
