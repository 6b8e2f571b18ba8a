// Package ordering computes and applies display-order changes for
// drag-and-drop curated collections such as storefront banners.
package ordering

import (
	"sort"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// Item is anything ranked by an integer display order.
type Item struct {
	ID     model.ID
	Order  int
	Active bool
}

// Update is one display-order write to persist.
type Update struct {
	ID    model.ID `json:"id"`
	Order int      `json:"display_order"`
}

// Filter selects which items take part in a reorder.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterActive   Filter = "active"
	FilterInactive Filter = "inactive"
)

// ParseFilter maps a query value to a Filter, defaulting to FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterActive, FilterInactive:
		return Filter(s)
	}
	return FilterAll
}

// Apply returns the items matching f, preserving their order.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		switch {
		case f == FilterActive && !it.Active:
		case f == FilterInactive && it.Active:
		default:
			out = append(out, it)
		}
	}
	return out
}

// SortByOrder sorts items by display order, breaking ties by id so that
// duplicated orders left behind by filtered reorders stay stable.  Numeric
// ids compare as numbers, matching ORDER BY display_order, id.
func SortByOrder(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return idLess(items[i].ID, items[j].ID)
	})
}

func idLess(a, b model.ID) bool {
	x, errA := a.Uint64()
	y, errB := b.Uint64()
	switch {
	case errA == nil && errB == nil:
		return x < y
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Reconcile moves draggedID to the position of targetID inside filtered
// and returns the writes needed to persist the new ranking.  Every item of
// the moved view is ranked by its index; only ranks that differ from the
// order stored in full are returned.  Items absent from filtered are never
// touched, so their orders may end up interleaved with the renumbered ones.
func Reconcile(full, filtered []Item, draggedID, targetID model.ID) []Update {
	if draggedID == targetID {
		return nil
	}
	from, to := -1, -1
	for i, it := range filtered {
		switch it.ID {
		case draggedID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return nil
	}

	moved := make([]Item, 0, len(filtered))
	moved = append(moved, filtered[:from]...)
	moved = append(moved, filtered[from+1:]...)
	moved = append(moved[:to], append([]Item{filtered[from]}, moved[to:]...)...)

	prior := make(map[model.ID]int, len(full))
	for _, it := range full {
		prior[it.ID] = it.Order
	}

	var updates []Update
	for i, it := range moved {
		old, ok := prior[it.ID]
		if !ok {
			old = it.Order
		}
		if old != i {
			updates = append(updates, Update{ID: it.ID, Order: i})
		}
	}
	return updates
}
