package domain

import "time"

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway
}

// OrderStatus is a closed enumeration; every status an order can carry is
// listed here and the allowed edges live in Transitions.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusPreparing       OrderStatus = "preparing"
	StatusReady           OrderStatus = "ready"
	StatusAwaitingPayment OrderStatus = "awaiting_payment"
	StatusServed          OrderStatus = "served"
	StatusCancelled       OrderStatus = "cancelled"
)

// Transitions is the authoritative edge table for the order lifecycle.
// ready -> awaiting_payment is the parking edge for gateway-mediated
// payments; the cash path goes ready -> served directly at checkout.
var Transitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusPreparing, StatusCancelled},
	StatusPreparing:       {StatusReady, StatusCancelled},
	StatusReady:           {StatusAwaitingPayment, StatusServed},
	StatusAwaitingPayment: {StatusServed},
	StatusServed:          {},
	StatusCancelled:       {},
}

func (s OrderStatus) Valid() bool {
	_, ok := Transitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range Transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outbound edges.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusServed || s == StatusCancelled
}

// IsEditable reports whether line items may still be mutated.
func (s OrderStatus) IsEditable() bool {
	return s == StatusPending || s == StatusPreparing
}

// Occupies reports whether a dine-in order in this status keeps its table
// occupied. awaiting_payment and terminal statuses do not count.
func (s OrderStatus) Occupies() bool {
	return s == StatusPending || s == StatusPreparing || s == StatusReady
}

// CheckoutEligible reports whether an order in this status may be closed
// through checkout once fully paid.
func (s OrderStatus) CheckoutEligible() bool {
	return s == StatusReady || s == StatusAwaitingPayment
}

// Order monetary fields are int64 minor units, derived from the item set and
// never hand-edited.
type Order struct {
	ID               int64
	Type             OrderType
	TableID          *int64
	ShiftID          int64
	Status           OrderStatus
	Subtotal         int64
	Tax              int64
	Total            int64
	CreatedByStaffID int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem captures the product's unit price at add time; later price
// changes do not touch existing lines.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	UnitPrice   int64
	Quantity    int
	LineTotal   int64
	CreatedAt   time.Time
}

type Product struct {
	ID     int64
	Name   string
	Price  int64
	Active bool
}
