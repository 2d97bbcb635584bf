package domain

import "time"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentQR       PaymentMethod = "qr"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQR, PaymentTransfer:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment rows are append-only. Corrections are new payments or external
// reversals, never edits; no code path updates or deletes a payment.
type Payment struct {
	ID                int64
	OrderID           int64
	Amount            int64
	Method            PaymentMethod
	Status            PaymentStatus
	ReceivedByStaffID int64
	CreatedAt         time.Time
}
