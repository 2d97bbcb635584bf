package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/repository"
)

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	defer s.lock(ctx)()
	o.ID = s.nextID()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	s.st.orders[o.ID] = *o
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	defer s.lock(ctx)()
	o, ok := s.st.orders[id]
	if !ok {
		return domain.Order{}, domain.E(domain.CodeOrderNotFound, "order not found").With("order_id", id)
	}
	return o, nil
}

// GetOrderForUpdate is identical to GetOrder here; Transact already holds
// the store-wide lock.
func (s *Store) GetOrderForUpdate(ctx context.Context, id int64) (domain.Order, error) {
	return s.GetOrder(ctx, id)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	defer s.lock(ctx)()
	o, ok := s.st.orders[id]
	if !ok {
		return domain.E(domain.CodeOrderNotFound, "order not found").With("order_id", id)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	s.st.orders[id] = o
	return nil
}

func (s *Store) UpdateOrderTotals(ctx context.Context, id int64, subtotal, tax, total int64) error {
	defer s.lock(ctx)()
	o, ok := s.st.orders[id]
	if !ok {
		return domain.E(domain.CodeOrderNotFound, "order not found").With("order_id", id)
	}
	o.Subtotal, o.Tax, o.Total = subtotal, tax, total
	o.UpdatedAt = time.Now().UTC()
	s.st.orders[id] = o
	return nil
}

func (s *Store) AppendStatusLog(ctx context.Context, orderID int64, status domain.OrderStatus, actorID int64) error {
	defer s.lock(ctx)()
	s.st.statusLog = append(s.st.statusLog, statusLogEntry{
		OrderID: orderID, Status: status, ActorID: actorID, ChangedAt: time.Now().UTC(),
	})
	return nil
}

func matchStatus(status domain.OrderStatus, statuses []domain.OrderStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

func (s *Store) ListShiftOrders(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	defer s.lock(ctx)()
	var out []domain.Order
	for _, o := range s.st.orders {
		if o.ShiftID == shiftID && matchStatus(o.Status, statuses) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountShiftOrders(ctx context.Context, shiftID int64, statuses ...domain.OrderStatus) (int, error) {
	orders, err := s.ListShiftOrders(ctx, shiftID, statuses...)
	return len(orders), err
}

func (s *Store) ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	defer s.lock(ctx)()
	var out []domain.OrderItem
	for _, it := range s.st.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetOrderItem(ctx context.Context, orderID, itemID int64) (domain.OrderItem, error) {
	defer s.lock(ctx)()
	it, ok := s.st.items[itemID]
	if !ok || it.OrderID != orderID {
		return domain.OrderItem{}, domain.E(domain.CodeOrderItemNotFound, "order item not found").
			With("order_id", orderID).With("item_id", itemID)
	}
	return it, nil
}

func (s *Store) InsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	defer s.lock(ctx)()
	item.ID = s.nextID()
	item.CreatedAt = time.Now().UTC()
	s.st.items[item.ID] = *item
	return nil
}

func (s *Store) UpdateOrderItemQuantity(ctx context.Context, itemID int64, quantity int, lineTotal int64) error {
	defer s.lock(ctx)()
	it, ok := s.st.items[itemID]
	if !ok {
		return domain.E(domain.CodeOrderItemNotFound, "order item not found").With("item_id", itemID)
	}
	it.Quantity = quantity
	it.LineTotal = lineTotal
	s.st.items[itemID] = it
	return nil
}

func (s *Store) DeleteOrderItem(ctx context.Context, itemID int64) error {
	defer s.lock(ctx)()
	delete(s.st.items, itemID)
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	defer s.lock(ctx)()
	p, ok := s.st.products[id]
	if !ok {
		return domain.Product{}, domain.E(domain.CodeProductNotFound, "product not found").With("product_id", id)
	}
	return p, nil
}

func (s *Store) InsertPayment(ctx context.Context, p *domain.Payment) error {
	defer s.lock(ctx)()
	p.ID = s.nextID()
	p.CreatedAt = time.Now().UTC()
	s.st.payments[p.ID] = *p
	return nil
}

func (s *Store) ListOrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	defer s.lock(ctx)()
	var out []domain.Payment
	for _, p := range s.st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SumPayments(ctx context.Context, orderID int64) (int64, error) {
	defer s.lock(ctx)()
	var sum int64
	for _, p := range s.st.payments {
		if p.OrderID == orderID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (s *Store) SumCompletedPayments(ctx context.Context, orderID int64) (int64, error) {
	defer s.lock(ctx)()
	var sum int64
	for _, p := range s.st.payments {
		if p.OrderID == orderID && p.Status == domain.PaymentStatusCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (s *Store) ShiftPaymentTotals(ctx context.Context, shiftID int64) (map[domain.PaymentMethod]int64, error) {
	defer s.lock(ctx)()
	totals := map[domain.PaymentMethod]int64{}
	for _, p := range s.st.payments {
		if p.Status != domain.PaymentStatusCompleted {
			continue
		}
		o, ok := s.st.orders[p.OrderID]
		if !ok || o.ShiftID != shiftID {
			continue
		}
		totals[p.Method] += p.Amount
	}
	return totals, nil
}

func (s *Store) ShiftExpectedCash(ctx context.Context, shiftID int64) (int64, error) {
	defer s.lock(ctx)()
	var sum int64
	for _, p := range s.st.payments {
		if p.Status != domain.PaymentStatusCompleted || p.Method != domain.PaymentCash {
			continue
		}
		o, ok := s.st.orders[p.OrderID]
		if !ok || o.ShiftID != shiftID || o.Status != domain.StatusServed {
			continue
		}
		sum += p.Amount
	}
	return sum, nil
}

func (s *Store) GetTable(ctx context.Context, id int64) (domain.RestaurantTable, error) {
	defer s.lock(ctx)()
	t, ok := s.st.tables[id]
	if !ok {
		return domain.RestaurantTable{}, domain.E(domain.CodeTableNotFound, "table not found").With("table_id", id)
	}
	return t, nil
}

func (s *Store) SetTableStatus(ctx context.Context, id int64, status domain.TableStatus) error {
	defer s.lock(ctx)()
	t, ok := s.st.tables[id]
	if !ok {
		return domain.E(domain.CodeTableNotFound, "table not found").With("table_id", id)
	}
	t.Status = status
	s.st.tables[id] = t
	return nil
}

func (s *Store) CountOccupyingOrders(ctx context.Context, tableID int64) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for _, o := range s.st.orders {
		if o.Type == domain.OrderTypeDineIn && o.TableID != nil && *o.TableID == tableID && o.Status.Occupies() {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetShift(ctx context.Context, id int64) (domain.Shift, error) {
	defer s.lock(ctx)()
	sh, ok := s.st.shifts[id]
	if !ok {
		return domain.Shift{}, domain.E(domain.CodeShiftNotFound, "shift not found").With("shift_id", id)
	}
	return sh, nil
}

func (s *Store) GetShiftForUpdate(ctx context.Context, id int64) (domain.Shift, error) {
	return s.GetShift(ctx, id)
}

func (s *Store) CountServedOrders(ctx context.Context, shiftID int64) (int, error) {
	return s.CountShiftOrders(ctx, shiftID, domain.StatusServed)
}

func (s *Store) CloseShift(ctx context.Context, id int64, endTime time.Time, countedCash, variance int64, approvalStaffID *int64) error {
	defer s.lock(ctx)()
	sh, ok := s.st.shifts[id]
	if !ok {
		return domain.E(domain.CodeShiftNotFound, "shift not found").With("shift_id", id)
	}
	if sh.EndTime != nil {
		return nil
	}
	sh.EndTime = &endTime
	sh.CountedCash = &countedCash
	sh.CashVariance = &variance
	sh.ManagerApprovalStaffID = approvalStaffID
	s.st.shifts[id] = sh
	return nil
}

func (s *Store) InsertShiftSummary(ctx context.Context, sum domain.ShiftFinancialSummary) error {
	defer s.lock(ctx)()
	s.st.shiftSummaries = append(s.st.shiftSummaries, sum)
	return nil
}

func (s *Store) InsertTerminalCashSummary(ctx context.Context, sum domain.TerminalCashSummary) error {
	defer s.lock(ctx)()
	s.st.terminalSummaries = append(s.st.terminalSummaries, sum)
	return nil
}

func (s *Store) ClaimIdempotencyKey(ctx context.Context, key, operation string) (bool, error) {
	defer s.lock(ctx)()
	if _, ok := s.st.idem[key]; ok {
		return false, nil
	}
	s.st.idem[key] = repository.IdempotencyRecord{
		Key: key, Operation: operation, CreatedAt: time.Now().UTC(),
	}
	return true, nil
}

func (s *Store) GetIdempotencyRecord(ctx context.Context, key string) (repository.IdempotencyRecord, error) {
	defer s.lock(ctx)()
	rec, ok := s.st.idem[key]
	if !ok {
		return repository.IdempotencyRecord{}, fmt.Errorf("idempotency key %q: %w", key, errNoRecord)
	}
	return rec, nil
}

func (s *Store) SaveIdempotencyResult(ctx context.Context, key string, result []byte) error {
	defer s.lock(ctx)()
	rec, ok := s.st.idem[key]
	if !ok {
		return fmt.Errorf("idempotency key %q: %w", key, errNoRecord)
	}
	rec.Result = result
	s.st.idem[key] = rec
	return nil
}

func (s *Store) InsertAuditEntry(ctx context.Context, e repository.AuditEntry) error {
	defer s.lock(ctx)()
	s.st.audit = append(s.st.audit, e)
	return nil
}
