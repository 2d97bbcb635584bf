package domain

import "time"

// Shift is the unit of cash reconciliation. Once EndTime is set the shift is
// closed and its terminal fields are never rewritten.
type Shift struct {
	ID                     int64
	StaffID                int64
	TerminalID             string
	StartTime              time.Time
	EndTime                *time.Time
	CountedCash            *int64
	CashVariance           *int64
	ManagerApprovalStaffID *int64
}

func (s Shift) Closed() bool { return s.EndTime != nil }

// ShiftSummary is the read-only reconciliation view: served orders and
// completed payments for the shift, broken down by method.
type ShiftSummary struct {
	ShiftID        int64
	ServedOrders   int
	TotalCollected int64
	ByMethod       map[PaymentMethod]int64
	ExpectedCash   int64
}

// ShiftFinancialSummary is the snapshot row written once at close.
type ShiftFinancialSummary struct {
	ShiftID        int64
	ServedOrders   int
	TotalCollected int64
	ExpectedCash   int64
	CountedCash    int64
	CashVariance   int64
	ClosedAt       time.Time
}

// TerminalCashSummary is the per-terminal, per-method breakdown written once
// at close.
type TerminalCashSummary struct {
	ShiftID    int64
	TerminalID string
	Method     PaymentMethod
	Amount     int64
	ClosedAt   time.Time
}
