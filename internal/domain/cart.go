package domain

// CartLine is one cart entry. Title, image and price are captured when the
// product is first added and never refreshed.
type CartLine struct {
	ID    ProductID `json:"id"`
	Title string    `json:"title"`
	Image string    `json:"image,omitempty"`
	Price float64   `json:"price"`
	Qty   int       `json:"qty"`
}

// Subtotal returns price times quantity.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Qty)
}

// Cart holds at most one line per product id. Lines with a quantity below
// one are never kept.
type Cart struct {
	lines []CartLine
}

// NewCart builds a cart from stored lines, merging duplicate ids and
// dropping lines without an id.
func NewCart(lines []CartLine) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.ID == "" {
			continue
		}
		if l.Qty < 1 {
			l.Qty = 1
		}
		if i := c.index(l.ID); i >= 0 {
			c.lines[i].Qty += l.Qty
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

func (c *Cart) index(id ProductID) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// Add puts one unit of p in the cart. An existing line has its quantity
// incremented; otherwise a new line snapshots the product using
// preferredImage, else the first gallery image. It reports false when p has
// no id.
func (c *Cart) Add(p Product, preferredImage string) bool {
	if p.ID == "" {
		return false
	}
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Qty++
		return true
	}

	image := preferredImage
	if image == "" {
		image = p.FirstImage()
	}
	c.lines = append(c.lines, CartLine{
		ID:    p.ID,
		Title: p.Title,
		Image: image,
		Price: p.SellingPrice,
		Qty:   1,
	})
	return true
}

// ChangeQuantity adds delta to the line's quantity. A line that reaches zero
// is removed.
func (c *Cart) ChangeQuantity(id ProductID, delta int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	qty := c.lines[i].Qty + delta
	if qty <= 0 {
		c.removeAt(i)
		return
	}
	c.lines[i].Qty = qty
}

// Remove drops the line for id.
func (c *Cart) Remove(id ProductID) {
	if i := c.index(id); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// ItemCount returns the total quantity across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Qty
	}
	return n
}

// Subtotal returns the sum of line subtotals.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c.lines {
		sum += l.Subtotal()
	}
	return sum
}
