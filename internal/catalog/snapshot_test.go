package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStock(t *testing.T) {
	ps := []Product{
		{ID: 1, Name: "Chocolate", Price: 600, Stock: 10},
		{ID: 2, Name: "Oreo", Price: 600, Stock: 4},
	}

	t.Run("ReplacesOnlyTarget", func(t *testing.T) {
		out := SetStock(ps, 1, 7)
		assert.Equal(t, 7, out[0].Stock)
		assert.Equal(t, ps[1], out[1])
		// input snapshot untouched
		assert.Equal(t, 10, ps[0].Stock)
	})

	t.Run("ClampsAtZero", func(t *testing.T) {
		out := SetStock(ps, 2, -3)
		assert.Equal(t, 0, out[1].Stock)
	})

	t.Run("UnknownIDNoop", func(t *testing.T) {
		out := SetStock(ps, 99, 1)
		assert.Equal(t, ps, out)
	})
}

func TestResetAll(t *testing.T) {
	ps := []Product{
		{ID: 1, Stock: 0},
		{ID: 2, Stock: 3},
		{ID: 3, Stock: 42},
	}
	for _, p := range ResetAll(ps) {
		assert.Equal(t, DefaultStock, p.Stock)
	}
}

func TestAdd(t *testing.T) {
	t.Run("EmptyCatalogGetsIDOne", func(t *testing.T) {
		out, err := Add(nil, Product{Name: "Frutilla", Price: 500})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 1, out[0].ID)
	})

	t.Run("MaxPlusOneAfterGaps", func(t *testing.T) {
		ps := []Product{{ID: 1, Name: "A", Price: 1}, {ID: 3, Name: "B", Price: 1}}
		out, err := Add(ps, Product{Name: "C", Price: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, out[2].ID)
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		_, err := Add(nil, Product{Name: "   ", Price: 500})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("RejectsNonPositivePrice", func(t *testing.T) {
		_, err := Add(nil, Product{Name: "Frutilla", Price: 0})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ClampsNegativeStock", func(t *testing.T) {
		out, err := Add(nil, Product{Name: "Frutilla", Price: 500, Stock: -2})
		require.NoError(t, err)
		assert.Equal(t, 0, out[0].Stock)
	})
}

func TestUpdate(t *testing.T) {
	ps := []Product{{ID: 1, Name: "Chocolate", Price: 600, Icon: "🍫", Stock: 10}}

	t.Run("MergesGivenFields", func(t *testing.T) {
		price := 650
		out := Update(ps, 1, Fields{Price: &price})
		assert.Equal(t, 650, out[0].Price)
		assert.Equal(t, "Chocolate", out[0].Name)
		assert.Equal(t, 10, out[0].Stock)
	})

	t.Run("UnknownIDNoop", func(t *testing.T) {
		name := "Otro"
		out := Update(ps, 2, Fields{Name: &name})
		assert.Equal(t, ps, out)
	})

	t.Run("ClampsStock", func(t *testing.T) {
		stock := -1
		out := Update(ps, 1, Fields{Stock: &stock})
		assert.Equal(t, 0, out[0].Stock)
	})
}

func TestRemove(t *testing.T) {
	ps := []Product{{ID: 1}, {ID: 2}, {ID: 3}}
	out := Remove(ps, 2)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, 3, out[1].ID)

	assert.Equal(t, ps, Remove(ps, 9))
}

func TestDecrement(t *testing.T) {
	ps := []Product{
		{ID: 1, Stock: 10},
		{ID: 2, Stock: 2},
	}

	t.Run("Subtracts", func(t *testing.T) {
		out := Decrement(ps, map[int]int{1: 3})
		assert.Equal(t, 7, out[0].Stock)
		assert.Equal(t, 2, out[1].Stock)
	})

	t.Run("OverConfirmationClampsAtZero", func(t *testing.T) {
		out := Decrement(ps, map[int]int{2: 5})
		assert.Equal(t, 0, out[1].Stock)
	})
}
