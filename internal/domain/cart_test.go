package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phone() Product {
	return Product{ID: "p1", Title: "Redmi Note", SellingPrice: 12999, MRP: 15999, Images: []string{"a.jpg", "b.jpg"}}
}

func TestCart_AddSameProductTwiceMergesLine(t *testing.T) {
	c := NewCart(nil)
	require.True(t, c.Add(phone(), ""))
	require.True(t, c.Add(phone(), "other.jpg"))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Qty)
	assert.Equal(t, "a.jpg", lines[0].Image, "image is the snapshot from the first add")
}

func TestCart_AddImagePreference(t *testing.T) {
	c := NewCart(nil)
	c.Add(phone(), "b.jpg")
	c.Add(Product{ID: "p2", Title: "Cable", SellingPrice: 199}, "")

	lines := c.Lines()
	assert.Equal(t, "b.jpg", lines[0].Image)
	assert.Equal(t, "", lines[1].Image)
	assert.Equal(t, 12999.0, lines[0].Price)
}

func TestCart_AddWithoutIDIsIgnored(t *testing.T) {
	c := NewCart(nil)
	assert.False(t, c.Add(Product{Title: "ghost"}, ""))
	assert.Equal(t, 0, c.Len())
}

func TestCart_QuantityToZeroRemovesLine(t *testing.T) {
	c := NewCart(nil)
	c.Add(phone(), "")
	c.Add(phone(), "")

	c.ChangeQuantity("p1", -1)
	assert.Equal(t, 1, c.ItemCount())

	c.ChangeQuantity("p1", -1)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Lines())
}

func TestCart_ChangeQuantityClampsLargeDecrement(t *testing.T) {
	c := NewCart([]CartLine{{ID: "p1", Qty: 2}, {ID: "p2", Qty: 1}})
	c.ChangeQuantity("p1", -10)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, ProductID("p2"), c.Lines()[0].ID)

	c.ChangeQuantity("missing", 1)
	assert.Equal(t, 1, c.Len())
}

func TestCart_TotalsAndRemove(t *testing.T) {
	c := NewCart([]CartLine{
		{ID: "a", Price: 100, Qty: 2},
		{ID: "b", Price: 50, Qty: 1},
		{ID: "c", Price: 10, Qty: 2},
	})
	assert.Equal(t, 5, c.ItemCount())
	assert.Equal(t, 270.0, c.Subtotal())

	c.Remove("b")
	assert.Equal(t, 4, c.ItemCount())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestNewCart_NormalizesStoredLines(t *testing.T) {
	c := NewCart([]CartLine{
		{ID: "a", Qty: 0},
		{ID: "", Qty: 3},
		{ID: "a", Qty: 2},
	})
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 3, c.Lines()[0].Qty)
}

func TestWishlist_DoubleToggleRestoresMembership(t *testing.T) {
	for _, start := range [][]string{{}, {"p1"}, {"p0", "p1", "p2"}} {
		w := NewWishlist(start)
		before := w.Contains("p1")

		w.Toggle("p1")
		assert.NotEqual(t, before, w.Contains("p1"))
		w.Toggle("p1")
		assert.Equal(t, before, w.Contains("p1"))
	}
}

func TestWishlist_ToggleAppendsAndRemoves(t *testing.T) {
	w := NewWishlist([]string{"a", "", "b", "a"})
	assert.Equal(t, []string{"a", "b"}, w.Strings())

	assert.True(t, w.Toggle("c"))
	assert.Equal(t, []ProductID{"a", "b", "c"}, w.IDs())

	assert.False(t, w.Toggle("a"))
	w.Remove("b")
	assert.Equal(t, []string{"c"}, w.Strings())
}
