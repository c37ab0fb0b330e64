package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orders(t *testing.T, l *OrderedList) map[string]int {
	t.Helper()
	require.NoError(t, CheckOrders(l.Orders()))
	out := make(map[string]int, l.Len())
	for _, p := range l.Orders() {
		out[p.ID] = p.Order
	}
	return out
}

func TestInsertShiftsSiblings(t *testing.T) {
	l := NewOrderedList("a", "b", "c")
	require.NoError(t, l.InsertAt("x", 1))

	got := orders(t, l)
	assert.Equal(t, map[string]int{"a": 0, "x": 1, "b": 2, "c": 3}, got)
}

func TestInsertAppendAndBounds(t *testing.T) {
	l := NewOrderedList("a")
	require.NoError(t, l.InsertAt("b", 1))
	assert.Equal(t, []string{"a", "b"}, l.IDs())

	assert.Error(t, l.InsertAt("c", 5))
	assert.Error(t, l.InsertAt("c", -1))
	assert.Error(t, l.InsertAt("a", 0), "duplicate id")
	assert.Equal(t, []string{"a", "b"}, l.IDs(), "failed insert leaves order untouched")
}

func TestRemoveShiftsSiblings(t *testing.T) {
	l := NewOrderedList("a", "b", "c", "d")
	require.NoError(t, l.RemoveAt(1))

	got := orders(t, l)
	assert.Equal(t, map[string]int{"a": 0, "c": 1, "d": 2}, got)
	assert.Error(t, l.RemoveAt(3))
}

func TestMoveSplices(t *testing.T) {
	l := NewOrderedList("a", "b", "c", "d", "e")
	require.NoError(t, l.Move(0, 3))
	assert.Equal(t, []string{"b", "c", "d", "a", "e"}, l.IDs())

	require.NoError(t, l.Move(3, 0))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, l.IDs())

	require.NoError(t, l.Move(2, 2))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, l.IDs())
	require.NoError(t, CheckOrders(l.Orders()))
}

func TestFromOrdersNormalizesGapsAndBase(t *testing.T) {
	// One-based input with gaps, as the non-enhanced authoring flow sends.
	l := FromOrders([]IDOrder{
		{ID: "c", Order: 7},
		{ID: "a", Order: 1},
		{ID: "b", Order: 3},
	})
	got := orders(t, l)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, got)
}

func TestCheckOrdersRejectsDuplicatesAndGaps(t *testing.T) {
	assert.Error(t, CheckOrders([]IDOrder{{ID: "a", Order: 0}, {ID: "b", Order: 0}}))
	assert.Error(t, CheckOrders([]IDOrder{{ID: "a", Order: 0}, {ID: "b", Order: 2}}))
	assert.NoError(t, CheckOrders([]IDOrder{{ID: "a", Order: 1}, {ID: "b", Order: 0}}))
}
