package content

import (
	"fmt"
	"sort"
)

// OrderedList maintains the total order over a sibling set (sections within a
// chapter, chapters within a book, resources within an org). Positions are
// zero-based; after any mutation the orders are exactly {0..N-1}, contiguous
// and unique. Callers persist the whole renumbered set in one transaction so
// no partially-renumbered state is ever visible.
type OrderedList struct {
	ids []string
}

func NewOrderedList(ids ...string) *OrderedList {
	out := make([]string, len(ids))
	copy(out, ids)
	return &OrderedList{ids: out}
}

// FromOrders builds a list from (id, order) pairs in whatever base or with
// whatever gaps the caller sent, sorting by the given order (ties keep input
// order) and renumbering from zero.
func FromOrders(pairs []IDOrder) *OrderedList {
	sorted := make([]IDOrder, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	ids := make([]string, len(sorted))
	for i, p := range sorted {
		ids[i] = p.ID
	}
	return &OrderedList{ids: ids}
}

type IDOrder struct {
	ID    string
	Order int
}

func (l *OrderedList) Len() int { return len(l.ids) }

// IDs returns the ids in order.
func (l *OrderedList) IDs() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// Orders returns the normalized zero-based order per id.
func (l *OrderedList) Orders() []IDOrder {
	out := make([]IDOrder, len(l.ids))
	for i, id := range l.ids {
		out[i] = IDOrder{ID: id, Order: i}
	}
	return out
}

// InsertAt places id at position k; siblings at position >= k shift by +1.
// k may equal Len() to append.
func (l *OrderedList) InsertAt(id string, k int) error {
	if k < 0 || k > len(l.ids) {
		return fmt.Errorf("insert position %d out of range [0,%d]", k, len(l.ids))
	}
	for _, existing := range l.ids {
		if existing == id {
			return fmt.Errorf("id %s already present", id)
		}
	}
	l.ids = append(l.ids, "")
	copy(l.ids[k+1:], l.ids[k:])
	l.ids[k] = id
	return nil
}

// RemoveAt drops the item at position k; siblings at position > k shift by -1.
func (l *OrderedList) RemoveAt(k int) error {
	if k < 0 || k >= len(l.ids) {
		return fmt.Errorf("remove position %d out of range [0,%d)", k, len(l.ids))
	}
	l.ids = append(l.ids[:k], l.ids[k+1:]...)
	return nil
}

// Move splices the item at position i out and reinserts it at position j;
// everything between shifts by one accordingly.
func (l *OrderedList) Move(i, j int) error {
	n := len(l.ids)
	if i < 0 || i >= n {
		return fmt.Errorf("move source %d out of range [0,%d)", i, n)
	}
	if j < 0 || j >= n {
		return fmt.Errorf("move target %d out of range [0,%d)", j, n)
	}
	if i == j {
		return nil
	}
	id := l.ids[i]
	rest := append(l.ids[:i:i], l.ids[i+1:]...)
	rest = append(rest, "")
	copy(rest[j+1:], rest[j:])
	rest[j] = id
	l.ids = rest
	return nil
}

// CheckOrders verifies that a stored sibling set still satisfies the
// invariant: orders are exactly {0..N-1} with no duplicates or gaps.
func CheckOrders(pairs []IDOrder) error {
	seen := make(map[int]string, len(pairs))
	for _, p := range pairs {
		if p.Order < 0 || p.Order >= len(pairs) {
			return fmt.Errorf("order %d of %s outside [0,%d)", p.Order, p.ID, len(pairs))
		}
		if prev, dup := seen[p.Order]; dup {
			return fmt.Errorf("duplicate order %d held by %s and %s", p.Order, prev, p.ID)
		}
		seen[p.Order] = p.ID
	}
	return nil
}
