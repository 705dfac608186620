// Package cart holds the customer's in-progress selection. A Cart lives for
// one session and is handed to checkout explicitly.
package cart

// Line is one menu item and its quantity.
type Line struct {
	MenuItemID int64 `json:"menu_item_id" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"gte=1,lte=50"`
}

type Cart struct {
	ServiceID int64
	lines     []Line
}

func New(serviceID int64) *Cart {
	return &Cart{ServiceID: serviceID}
}

// FromLines builds a cart from client-submitted lines, merging duplicates.
func FromLines(serviceID int64, lines []Line) (*Cart, error) {
	c := New(serviceID)
	for _, l := range lines {
		if err := c.Add(l.MenuItemID, l.Quantity); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add puts qty of an item in the cart. An item already present has its
// quantity increased instead of getting a second line.
func (c *Cart) Add(menuItemID int64, qty int) error {
	if menuItemID <= 0 {
		return ErrInvalidItem
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	if i := c.index(menuItemID); i >= 0 {
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, Line{MenuItemID: menuItemID, Quantity: qty})
	return nil
}

// SetQuantity overwrites the quantity of an item. Zero removes the line.
func (c *Cart) SetQuantity(menuItemID int64, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	i := c.index(menuItemID)
	if i < 0 {
		return ErrCartItemNotFound
	}
	if qty == 0 {
		c.removeAt(i)
		return nil
	}
	c.lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(menuItemID int64) error {
	i := c.index(menuItemID)
	if i < 0 {
		return ErrCartItemNotFound
	}
	c.removeAt(i)
	return nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) index(menuItemID int64) int {
	for i, l := range c.lines {
		if l.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
