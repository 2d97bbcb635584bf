package api

import (
	"time"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/service/order"
	"restaurant-pos/internal/service/shift"
)

type orderView struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	TableID   *int64    `json:"table_id,omitempty"`
	ShiftID   int64     `json:"shift_id"`
	Status    string    `json:"status"`
	Subtotal  int64     `json:"subtotal"`
	Tax       int64     `json:"tax"`
	Total     int64     `json:"total"`
	CreatedBy int64     `json:"created_by_staff_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOrder(o domain.Order) orderView {
	return orderView{
		ID:        o.ID,
		Type:      string(o.Type),
		TableID:   o.TableID,
		ShiftID:   o.ShiftID,
		Status:    string(o.Status),
		Subtotal:  o.Subtotal,
		Tax:       o.Tax,
		Total:     o.Total,
		CreatedBy: o.CreatedByStaffID,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type orderItemView struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	LineTotal int64 `json:"line_total"`
}

func viewItem(it domain.OrderItem) orderItemView {
	return orderItemView{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
		LineTotal: it.LineTotal,
	}
}

type orderDetailView struct {
	orderView
	Items     []orderItemView `json:"items"`
	TotalPaid int64           `json:"total_paid"`
}

func viewDetail(d order.Detail) orderDetailView {
	items := make([]orderItemView, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, viewItem(it))
	}
	return orderDetailView{orderView: viewOrder(d.Order), Items: items, TotalPaid: d.TotalPaid}
}

type paymentView struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
}

func viewPayment(p domain.Payment) paymentView {
	return paymentView{
		ID:         p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Status:     string(p.Status),
		ReceivedAt: p.CreatedAt,
	}
}

type shiftSummaryView struct {
	ShiftID        int64            `json:"shift_id"`
	ServedOrders   int              `json:"served_orders"`
	TotalCollected int64            `json:"total_collected"`
	ByMethod       map[string]int64 `json:"by_method"`
	ExpectedCash   int64            `json:"expected_cash"`
}

func viewShiftSummary(s domain.ShiftSummary) shiftSummaryView {
	byMethod := make(map[string]int64, len(s.ByMethod))
	for m, amount := range s.ByMethod {
		byMethod[string(m)] = amount
	}
	return shiftSummaryView{
		ShiftID:        s.ShiftID,
		ServedOrders:   s.ServedOrders,
		TotalCollected: s.TotalCollected,
		ByMethod:       byMethod,
		ExpectedCash:   s.ExpectedCash,
	}
}

type shiftCloseView struct {
	ShiftID         int64     `json:"shift_id"`
	ServedOrders    int       `json:"served_orders"`
	TotalCollected  int64     `json:"total_collected"`
	ExpectedCash    int64     `json:"expected_cash"`
	CountedCash     int64     `json:"counted_cash"`
	CashVariance    int64     `json:"cash_variance"`
	ApprovedByStaff *int64    `json:"approved_by_staff_id,omitempty"`
	ClosedAt        time.Time `json:"closed_at"`
}

func viewShiftClose(r shift.CloseResult) shiftCloseView {
	return shiftCloseView{
		ShiftID:         r.Summary.ShiftID,
		ServedOrders:    r.Summary.ServedOrders,
		TotalCollected:  r.Summary.TotalCollected,
		ExpectedCash:    r.Summary.ExpectedCash,
		CountedCash:     r.Summary.CountedCash,
		CashVariance:    r.Summary.CashVariance,
		ApprovedByStaff: r.Shift.ManagerApprovalStaffID,
		ClosedAt:        r.Summary.ClosedAt,
	}
}
