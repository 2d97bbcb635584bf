package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restaurant-pos/internal/domain"
)

const orderColumns = `id, order_type, table_id, shift_id, status, subtotal, tax, total, created_by_staff_id, created_at, updated_at`

func scanOrder(row *sql.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Type, &o.TableID, &o.ShiftID, &o.Status,
		&o.Subtotal, &o.Tax, &o.Total, &o.CreatedByStaffID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.E(domain.CodeOrderNotFound, "order not found")
	}
	return o, err
}

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	return s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO orders (order_type, table_id, shift_id, status, subtotal, tax, total, created_by_staff_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, o.Type, o.TableID, o.ShiftID, o.Status, o.Subtotal, o.Tax, o.Total, o.CreatedByStaffID).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if domain.IsCode(err, domain.CodeOrderNotFound) {
		return domain.Order{}, domain.E(domain.CodeOrderNotFound, "order not found").With("order_id", id)
	}
	return o, err
}

func (s *Store) GetOrderForUpdate(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id))
	if domain.IsCode(err, domain.CodeOrderNotFound) {
		return domain.Order{}, domain.E(domain.CodeOrderNotFound, "order not found").With("order_id", id)
	}
	return o, err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	return err
}

func (s *Store) UpdateOrderTotals(ctx context.Context, id int64, subtotal, tax, total int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE orders SET subtotal=$2, tax=$3, total=$4, updated_at=NOW() WHERE id=$1`,
		id, subtotal, tax, total)
	return err
}

func (s *Store) AppendStatusLog(ctx context.Context, orderID int64, status domain.OrderStatus, actorID int64) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by_staff_id, changed_at)
		VALUES ($1, $2, $3, NOW())
	`, orderID, status, actorID)
	return err
}

func statusPlaceholders(statuses []domain.OrderStatus, from int) (string, []any) {
	ph := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, st := range statuses {
		ph[i] = fmt.Sprintf("$%d", from+i)
		args[i] = st
	}
	return strings.Join(ph, ","), args
}

func (s *Store) ListShiftOrders(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE shift_id=$1`
	args := []any{shiftID}
	if len(statuses) > 0 {
		ph, extra := statusPlaceholders(statuses, 2)
		query += ` AND status IN (` + ph + `)`
		args = append(args, extra...)
	}
	query += ` ORDER BY id`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Type, &o.TableID, &o.ShiftID, &o.Status,
			&o.Subtotal, &o.Tax, &o.Total, &o.CreatedByStaffID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CountShiftOrders(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE shift_id=$1`
	args := []any{shiftID}
	if len(statuses) > 0 {
		ph, extra := statusPlaceholders(statuses, 2)
		query += ` AND status IN (` + ph + `)`
		args = append(args, extra...)
	}
	var n int
	err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
