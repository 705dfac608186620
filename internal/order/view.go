package order

import (
	"time"

	"bitebuddy-be/internal/user"
)

type ItemView struct {
	MenuItemID   int64 `json:"menu_item_id"`
	Quantity     int   `json:"quantity"`
	PriceAtOrder int64 `json:"price_at_order"`
	LineTotal    int64 `json:"line_total"`
}

// CustomerView is the only shape customers ever receive. It has no code.
type CustomerView struct {
	ID                  int64      `json:"id"`
	OrderNumber         string     `json:"order_number"`
	ServiceID           int64      `json:"service_id"`
	TotalAmount         int64      `json:"total_amount"`
	Address             string     `json:"address"`
	Phone               string     `json:"phone"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	Status              Status     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Items               []ItemView `json:"items,omitempty"`
}

type StaffView struct {
	CustomerView
	CustomerID  int64      `json:"customer_id"`
	AssignedTo  *int64     `json:"assigned_to,omitempty"`
	OTPExpiry   *time.Time `json:"otp_expiry,omitempty"`
	OTPAttempts int        `json:"otp_attempts"`
	OTPLocked   bool       `json:"otp_locked"`
}

type AdminView struct {
	StaffView
	OTP *string `json:"otp,omitempty"`
}

func NewCustomerView(o *Order) CustomerView {
	v := CustomerView{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		ServiceID:           o.ServiceID,
		TotalAmount:         o.TotalAmount,
		Address:             o.Address,
		Phone:               o.Phone,
		SpecialInstructions: o.SpecialInstructions,
		Status:              o.Status,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, ItemView{
			MenuItemID:   it.MenuItemID,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtOrder,
			LineTotal:    it.PriceAtOrder * int64(it.Quantity),
		})
	}
	return v
}

func NewStaffView(o *Order, maxAttempts int) StaffView {
	return StaffView{
		CustomerView: NewCustomerView(o),
		CustomerID:   o.CustomerID,
		AssignedTo:   o.AssignedTo,
		OTPExpiry:    o.OTP.Expiry,
		OTPAttempts:  o.OTP.Attempts,
		OTPLocked:    o.Locked(maxAttempts),
	}
}

func NewAdminView(o *Order, maxAttempts int) AdminView {
	v := AdminView{StaffView: NewStaffView(o, maxAttempts)}
	if o.Status == StatusOutForDelivery {
		v.OTP = o.OTP.Code
	}
	return v
}

// ViewFor picks the view matching the caller's role.
func ViewFor(role user.Role, o *Order, maxAttempts int) any {
	switch role {
	case user.RoleAdmin:
		return NewAdminView(o, maxAttempts)
	case user.RoleStaff:
		return NewStaffView(o, maxAttempts)
	default:
		return NewCustomerView(o)
	}
}
