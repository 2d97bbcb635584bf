package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code is a machine-readable failure kind. Callers switch on codes, never on
// message text.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Not-found
	CodeOrderNotFound     Code = "ORDER_NOT_FOUND"
	CodeOrderItemNotFound Code = "ORDER_ITEM_NOT_FOUND"
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeTableNotFound     Code = "TABLE_NOT_FOUND"
	CodeShiftNotFound     Code = "SHIFT_NOT_FOUND"

	// Invalid-state
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeOrderImmutable    Code = "ORDER_IMMUTABLE"
	CodeOrderCancelled    Code = "ORDER_CANCELLED"
	CodeOrderNotTerminal  Code = "ORDER_NOT_TERMINAL"
	CodeShiftAlreadyClosed Code = "SHIFT_ALREADY_CLOSED"

	// Invariant-violation
	CodePaymentExceedsTotal      Code = "PAYMENT_EXCEEDS_TOTAL"
	CodeOrderNotFullyPaid        Code = "ORDER_NOT_FULLY_PAID"
	CodeOrderNotReadyForCheckout Code = "ORDER_NOT_READY_FOR_CHECKOUT"
	CodeInvalidQuantity          Code = "INVALID_QUANTITY"
	CodeInvalidAmount            Code = "INVALID_AMOUNT"
	CodeInvalidPaymentMethod     Code = "INVALID_PAYMENT_METHOD"
	CodeProductInactive          Code = "PRODUCT_INACTIVE"
	CodeInvalidOrder             Code = "INVALID_ORDER"
	CodeShiftHasUnfinishedOrders Code = "SHIFT_HAS_UNFINISHED_ORDERS"

	// Policy-escalation (recoverable: retry the same call with approval)
	CodeManagerApprovalRequired Code = "MANAGER_APPROVAL_REQUIRED"

	// Authorization
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// Idempotency
	CodeIdempotencyMismatch Code = "IDEMPOTENCY_MISMATCH"
)

// Error carries the identifiers and numeric values needed to reconstruct a
// failure without re-querying storage.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]any
}

func E(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// With attaches a metadata key; it returns the receiver for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = value
	return e
}

func (e *Error) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Meta))
	for k := range e.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Meta[k])
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, b.String())
}

// Recoverable reports whether the same logical operation can succeed when
// re-submitted with more context (policy escalations, not hard failures).
func (e *Error) Recoverable() bool {
	return e.Code == CodeManagerApprovalRequired
}

// CodeOf extracts the code from any error in the chain, CodeUnknown when the
// error is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func MetaOf(err error) map[string]any {
	var de *Error
	if errors.As(err, &de) {
		return de.Meta
	}
	return nil
}

// Constructors for the meta-heavy kinds, so every site carries the same keys.

func ErrPaymentExceedsTotal(total, current, attempted int64) *Error {
	return E(CodePaymentExceedsTotal, "payment would exceed order total").
		With("total", total).
		With("current", current).
		With("attempted", attempted)
}

func ErrOrderNotFullyPaid(total, paid int64) *Error {
	return E(CodeOrderNotFullyPaid, "order is not fully paid").
		With("total", total).
		With("paid", paid)
}

func ErrOrderNotReadyForCheckout(status OrderStatus) *Error {
	return E(CodeOrderNotReadyForCheckout, "order is not ready for checkout").
		With("status", string(status))
}

func ErrInvalidTransition(from, to OrderStatus) *Error {
	return E(CodeInvalidTransition, "status transition not allowed").
		With("from", string(from)).
		With("to", string(to))
}

func ErrShiftHasUnfinishedOrders(count int) *Error {
	return E(CodeShiftHasUnfinishedOrders, "shift has unfinished orders").
		With("pending_count", count)
}

func ErrManagerApprovalRequired(variance, threshold int64) *Error {
	return E(CodeManagerApprovalRequired, "cash variance exceeds threshold, manager approval required").
		With("variance", variance).
		With("threshold", threshold)
}
