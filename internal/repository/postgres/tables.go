package postgres

import (
	"context"
	"database/sql"
	"errors"

	"restaurant-pos/internal/domain"
)

func (s *Store) GetTable(ctx context.Context, id int64) (domain.RestaurantTable, error) {
	var t domain.RestaurantTable
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, table_number, status FROM restaurant_tables WHERE id=$1`, id).
		Scan(&t.ID, &t.Number, &t.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RestaurantTable{}, domain.E(domain.CodeTableNotFound, "table not found").With("table_id", id)
	}
	return t, err
}

func (s *Store) SetTableStatus(ctx context.Context, id int64, status domain.TableStatus) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE restaurant_tables SET status=$2 WHERE id=$1`, id, status)
	return err
}

func (s *Store) CountOccupyingOrders(ctx context.Context, tableID int64) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE table_id=$1 AND order_type='dine_in' AND status IN ('pending','preparing','ready')
	`, tableID).Scan(&n)
	return n, err
}
