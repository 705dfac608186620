package order

import (
	"math"
	"time"

	"bitebuddy-be/internal/cart"
	"bitebuddy-be/internal/user"
)

type Status string

const (
	StatusPlaced         Status = "placed"
	StatusAssigned       Status = "assigned"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var statusRank = map[Status]int{
	StatusPlaced:         0,
	StatusAssigned:       1,
	StatusOutForDelivery: 2,
	StatusDelivered:      3,
	StatusCancelled:      3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// AtOrBefore reports whether s comes no later than other in the delivery flow.
func (s Status) AtOrBefore(other Status) bool {
	return statusRank[s] <= statusRank[other]
}

// OTPState is the delivery-confirmation sub-state. Code and Expiry are set
// only while the order is out for delivery.
type OTPState struct {
	Code     *string
	Expiry   *time.Time
	Attempts int
}

func (o OTPState) Active() bool {
	return o.Code != nil
}

type Order struct {
	ID                  int64
	OrderNumber         string
	CustomerID          int64
	ServiceID           int64
	TotalAmount         int64
	Address             string
	Phone               string
	SpecialInstructions string
	Status              Status
	AssignedTo          *int64
	OTP                 OTPState
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Items []OrderItem
}

// OrderItem keeps the price the customer saw at checkout.
type OrderItem struct {
	ID           int64
	OrderID      int64
	MenuItemID   int64
	Quantity     int
	PriceAtOrder int64
}

// Outcome is the result of a delivery-code submission.
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeInvalidCode Outcome = "invalid_code"
	OutcomeExpired     Outcome = "expired"
	OutcomeLocked      Outcome = "locked"
)

type OTPPolicy struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
}

func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{Length: 6, TTL: 10 * time.Minute, MaxAttempts: 3}
}

// DeliveryDetails is what the customer enters next to the cart at checkout.
type DeliveryDetails struct {
	Address             string
	Phone               string
	SpecialInstructions string
}

type checkoutRequest struct {
	ServiceID           int64       `json:"service_id" validate:"required,gt=0"`
	Address             string      `json:"address" validate:"required,max=500"`
	Phone               string      `json:"phone" validate:"required,phone"`
	SpecialInstructions string      `json:"special_instructions" validate:"max=1000"`
	Items               []cart.Line `json:"items" validate:"dive"`
}

type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = 20
	} else if p.Size > 100 {
		p.Size = 100
	}
	if maxNumber := math.MaxInt32 / p.Size; p.Number > maxNumber {
		p.Number = maxNumber
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

type ListFilter struct {
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
	Page     Page
}

type Stats struct {
	TotalOrders       int64            `json:"total_orders"`
	Revenue           int64            `json:"revenue"`
	AverageOrderValue int64            `json:"average_order_value"`
	ByStatus          map[Status]int64 `json:"by_status"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   int64
	Role user.Role
}
