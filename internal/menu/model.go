package menu

// MenuItem is the live menu entry. Price is in minor currency units.
type MenuItem struct {
	ID          int64  `json:"id"`
	ServiceID   int64  `json:"service_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	IsAvailable bool   `json:"is_available"`
}
