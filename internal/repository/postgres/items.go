package postgres

import (
	"context"
	"database/sql"
	"errors"

	"restaurant-pos/internal/domain"
)

func (s *Store) ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total, created_at
		FROM order_items WHERE order_id=$1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.LineTotal, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) GetOrderItem(ctx context.Context, orderID, itemID int64) (domain.OrderItem, error) {
	var it domain.OrderItem
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total, created_at
		FROM order_items WHERE id=$1 AND order_id=$2
	`, itemID, orderID).Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
		&it.UnitPrice, &it.Quantity, &it.LineTotal, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OrderItem{}, domain.E(domain.CodeOrderItemNotFound, "order item not found").
			With("order_id", orderID).With("item_id", itemID)
	}
	return it, err
}

func (s *Store) InsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, line_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineTotal).
		Scan(&item.ID, &item.CreatedAt)
}

func (s *Store) UpdateOrderItemQuantity(ctx context.Context, itemID int64, quantity int, lineTotal int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE order_items SET quantity=$2, line_total=$3 WHERE id=$1`, itemID, quantity, lineTotal)
	return err
}

func (s *Store) DeleteOrderItem(ctx context.Context, itemID int64) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM order_items WHERE id=$1`, itemID)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, price, active FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.E(domain.CodeProductNotFound, "product not found").With("product_id", id)
	}
	return p, err
}
