package postgres

import (
	"context"

	"restaurant-pos/internal/domain"
)

func (s *Store) InsertPayment(ctx context.Context, p *domain.Payment) error {
	return s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO payments (order_id, amount, method, status, received_by_staff_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, p.OrderID, p.Amount, p.Method, p.Status, p.ReceivedByStaffID).
		Scan(&p.ID, &p.CreatedAt)
}

func (s *Store) ListOrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, order_id, amount, method, status, received_by_staff_id, created_at
		FROM payments WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status,
			&p.ReceivedByStaffID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SumPayments(ctx context.Context, orderID int64) (int64, error) {
	var sum int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id=$1`, orderID).Scan(&sum)
	return sum, err
}

func (s *Store) SumCompletedPayments(ctx context.Context, orderID int64) (int64, error) {
	var sum int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id=$1 AND status='completed'`,
		orderID).Scan(&sum)
	return sum, err
}

func (s *Store) ShiftPaymentTotals(ctx context.Context, shiftID int64) (map[domain.PaymentMethod]int64, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT p.method, COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.shift_id=$1 AND p.status='completed'
		GROUP BY p.method
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[domain.PaymentMethod]int64{}
	for rows.Next() {
		var m domain.PaymentMethod
		var sum int64
		if err := rows.Scan(&m, &sum); err != nil {
			return nil, err
		}
		totals[m] = sum
	}
	return totals, rows.Err()
}

func (s *Store) ShiftExpectedCash(ctx context.Context, shiftID int64) (int64, error) {
	var sum int64
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.shift_id=$1 AND o.status='served' AND p.status='completed' AND p.method='cash'
	`, shiftID).Scan(&sum)
	return sum, err
}
