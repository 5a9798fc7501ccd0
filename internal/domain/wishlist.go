package domain

import "slices"

// Wishlist is an ordered set of product ids.
type Wishlist struct {
	ids []ProductID
}

// NewWishlist builds a wishlist from stored ids, dropping blanks and
// duplicates.
func NewWishlist(ids []string) *Wishlist {
	w := &Wishlist{}
	for _, id := range ids {
		pid := ProductID(id)
		if pid == "" || w.Contains(pid) {
			continue
		}
		w.ids = append(w.ids, pid)
	}
	return w
}

// Contains reports membership.
func (w *Wishlist) Contains(id ProductID) bool {
	return slices.Contains(w.ids, id)
}

// Toggle removes id when present and appends it otherwise. It returns the
// new membership.
func (w *Wishlist) Toggle(id ProductID) bool {
	if w.Contains(id) {
		w.Remove(id)
		return false
	}
	w.ids = append(w.ids, id)
	return true
}

// Remove drops id.
func (w *Wishlist) Remove(id ProductID) {
	w.ids = slices.DeleteFunc(w.ids, func(x ProductID) bool { return x == id })
}

// IDs returns a copy of the ids in insertion order.
func (w *Wishlist) IDs() []ProductID {
	return slices.Clone(w.ids)
}

// Strings returns the ids in their stored form.
func (w *Wishlist) Strings() []string {
	out := make([]string, len(w.ids))
	for i, id := range w.ids {
		out[i] = string(id)
	}
	return out
}

// Len returns the number of ids.
func (w *Wishlist) Len() int { return len(w.ids) }
