package domain

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
)

// RestaurantTable.Status is derived from active orders; it is only written
// by order creation and by the occupancy tracker on terminal transitions.
type RestaurantTable struct {
	ID     int64
	Number int
	Status TableStatus
}
