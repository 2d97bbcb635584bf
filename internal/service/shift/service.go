// Package shift owns end-of-shift financial reconciliation: the read-only
// summary and the close operation with its cash-variance policy.
package shift

import (
	"context"
	"sort"
	"time"

	"restaurant-pos/internal/audit"
	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/repository"
)

type Store interface {
	repository.Transactor
	repository.Orders
	repository.Payments
	repository.Shifts
}

type Service struct {
	store  Store
	authz  auth.Authorizer
	events events.Publisher
	audit  audit.Sink
	lg     *logger.Logger

	// varianceThreshold is the absolute counted-vs-expected cash difference
	// (minor units) above which closing needs a manager approval.
	varianceThreshold int64
}

func New(store Store, authz auth.Authorizer, pub events.Publisher, sink audit.Sink, lg *logger.Logger, varianceThreshold int64) *Service {
	return &Service{store: store, authz: authz, events: pub, audit: sink, lg: lg, varianceThreshold: varianceThreshold}
}

// Summary reports the shift's collected money by method, its served order
// count and the expected cash drawer amount. It never mutates anything and
// works on open and closed shifts alike.
func (s *Service) Summary(ctx context.Context, shiftID int64) (domain.ShiftSummary, error) {
	var sum domain.ShiftSummary
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetShift(ctx, shiftID); err != nil {
			return err
		}
		served, err := s.store.CountServedOrders(ctx, shiftID)
		if err != nil {
			return err
		}
		byMethod, err := s.store.ShiftPaymentTotals(ctx, shiftID)
		if err != nil {
			return err
		}
		expectedCash, err := s.store.ShiftExpectedCash(ctx, shiftID)
		if err != nil {
			return err
		}
		var total int64
		for _, amount := range byMethod {
			total += amount
		}
		sum = domain.ShiftSummary{
			ShiftID:        shiftID,
			ServedOrders:   served,
			TotalCollected: total,
			ByMethod:       byMethod,
			ExpectedCash:   expectedCash,
		}
		return nil
	})
	return sum, err
}

type CloseInput struct {
	ShiftID     int64
	CountedCash int64
	ActorID     int64
	// ApprovalActorID carries the approving manager on the retry after a
	// variance rejection. Nil on the first attempt.
	ApprovalActorID *int64
}

type CloseResult struct {
	Shift   domain.Shift
	Summary domain.ShiftFinancialSummary
}

// Close reconciles and closes the shift. It refuses when orders are still in
// flight, and when the cash variance exceeds the threshold it stops without
// side effects until a manager approval accompanies the retry.
func (s *Service) Close(ctx context.Context, in CloseInput) (CloseResult, error) {
	if err := s.authz.AssertRole(ctx, in.ActorID, auth.Elevated...); err != nil {
		return CloseResult{}, err
	}

	var (
		res     CloseResult
		pending []events.Event
	)
	err := s.store.Transact(ctx, func(ctx context.Context) error {
		sh, err := s.store.GetShiftForUpdate(ctx, in.ShiftID)
		if err != nil {
			return err
		}
		if sh.Closed() {
			return domain.E(domain.CodeShiftAlreadyClosed, "shift is already closed").
				With("shift_id", sh.ID)
		}

		unfinished, err := s.store.CountShiftOrders(ctx, in.ShiftID,
			domain.StatusPending, domain.StatusPreparing)
		if err != nil {
			return err
		}
		if unfinished > 0 {
			return domain.ErrShiftHasUnfinishedOrders(unfinished)
		}

		expectedCash, err := s.store.ShiftExpectedCash(ctx, in.ShiftID)
		if err != nil {
			return err
		}
		variance := in.CountedCash - expectedCash
		if abs(variance) > s.varianceThreshold {
			if in.ApprovalActorID == nil {
				return domain.ErrManagerApprovalRequired(variance, s.varianceThreshold)
			}
			if err := s.authz.AssertRole(ctx, *in.ApprovalActorID, auth.Elevated...); err != nil {
				return err
			}
		}

		served, err := s.store.CountServedOrders(ctx, in.ShiftID)
		if err != nil {
			return err
		}
		byMethod, err := s.store.ShiftPaymentTotals(ctx, in.ShiftID)
		if err != nil {
			return err
		}
		var collected int64
		for _, amount := range byMethod {
			collected += amount
		}

		closedAt := time.Now().UTC()
		var approvalID *int64
		if abs(variance) > s.varianceThreshold {
			approvalID = in.ApprovalActorID
		}
		if err := s.store.CloseShift(ctx, in.ShiftID, closedAt, in.CountedCash, variance, approvalID); err != nil {
			return err
		}

		summary := domain.ShiftFinancialSummary{
			ShiftID:        in.ShiftID,
			ServedOrders:   served,
			TotalCollected: collected,
			ExpectedCash:   expectedCash,
			CountedCash:    in.CountedCash,
			CashVariance:   variance,
			ClosedAt:       closedAt,
		}
		if err := s.store.InsertShiftSummary(ctx, summary); err != nil {
			return err
		}
		for _, method := range sortedMethods(byMethod) {
			err := s.store.InsertTerminalCashSummary(ctx, domain.TerminalCashSummary{
				ShiftID:    in.ShiftID,
				TerminalID: sh.TerminalID,
				Method:     method,
				Amount:     byMethod[method],
				ClosedAt:   closedAt,
			})
			if err != nil {
				return err
			}
		}

		closed, err := s.store.GetShift(ctx, in.ShiftID)
		if err != nil {
			return err
		}
		res = CloseResult{Shift: closed, Summary: summary}

		pending = append(pending, events.Event{
			Type:    events.TypeShiftClosed,
			ShiftID: in.ShiftID,
			Amount:  collected,
			ActorID: in.ActorID,
		})
		return nil
	})
	if err != nil {
		return CloseResult{}, err
	}

	for _, e := range pending {
		s.emit(ctx, e)
	}
	s.recordAudit(ctx, audit.Entry{
		ActorID:    in.ActorID,
		Action:     "shift.closed",
		EntityType: "shift",
		EntityID:   in.ShiftID,
		After:      res.Summary,
	})
	s.lg.Info("shift_closed", map[string]any{
		"shift_id":      in.ShiftID,
		"counted_cash":  in.CountedCash,
		"cash_variance": res.Summary.CashVariance,
	})
	return res, nil
}

func sortedMethods(byMethod map[domain.PaymentMethod]int64) []domain.PaymentMethod {
	methods := make([]domain.PaymentMethod, 0, len(byMethod))
	for m := range byMethod {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.lg.Error("event_publish_failed", err, map[string]any{"type": e.Type, "shift_id": e.ShiftID})
	}
}

func (s *Service) recordAudit(ctx context.Context, e audit.Entry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.lg.Error("audit_write_failed", err, map[string]any{"action": e.Action, "entity_id": e.EntityID})
	}
}
