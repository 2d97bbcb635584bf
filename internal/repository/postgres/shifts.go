package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"restaurant-pos/internal/domain"
)

const shiftColumns = `id, staff_id, terminal_id, start_time, end_time, counted_cash, cash_variance, manager_approval_staff_id`

func (s *Store) scanShift(row *sql.Row, id int64) (domain.Shift, error) {
	var sh domain.Shift
	err := row.Scan(&sh.ID, &sh.StaffID, &sh.TerminalID, &sh.StartTime,
		&sh.EndTime, &sh.CountedCash, &sh.CashVariance, &sh.ManagerApprovalStaffID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shift{}, domain.E(domain.CodeShiftNotFound, "shift not found").With("shift_id", id)
	}
	return sh, err
}

func (s *Store) GetShift(ctx context.Context, id int64) (domain.Shift, error) {
	return s.scanShift(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE id=$1`, id), id)
}

func (s *Store) GetShiftForUpdate(ctx context.Context, id int64) (domain.Shift, error) {
	return s.scanShift(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE id=$1 FOR UPDATE`, id), id)
}

func (s *Store) CountServedOrders(ctx context.Context, shiftID int64) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE shift_id=$1 AND status='served'`, shiftID).Scan(&n)
	return n, err
}

func (s *Store) CloseShift(ctx context.Context, id int64, endTime time.Time, countedCash, variance int64, approvalStaffID *int64) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE shifts
		SET end_time=$2, counted_cash=$3, cash_variance=$4, manager_approval_staff_id=$5
		WHERE id=$1 AND end_time IS NULL
	`, id, endTime, countedCash, variance, approvalStaffID)
	return err
}

func (s *Store) InsertShiftSummary(ctx context.Context, sum domain.ShiftFinancialSummary) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO shift_financial_summaries
			(shift_id, served_orders, total_collected, expected_cash, counted_cash, cash_variance, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sum.ShiftID, sum.ServedOrders, sum.TotalCollected, sum.ExpectedCash,
		sum.CountedCash, sum.CashVariance, sum.ClosedAt)
	return err
}

func (s *Store) InsertTerminalCashSummary(ctx context.Context, sum domain.TerminalCashSummary) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO terminal_cash_summaries (shift_id, terminal_id, method, amount, closed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sum.ShiftID, sum.TerminalID, sum.Method, sum.Amount, sum.ClosedAt)
	return err
}
