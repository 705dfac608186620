package cart

import "errors"

var (
	ErrInvalidQuantity  = errors.New("invalid cart quantity")
	ErrInvalidItem      = errors.New("invalid menu item")
	ErrCartItemNotFound = errors.New("cart item not found")
)
