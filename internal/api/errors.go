package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pos/internal/domain"
)

// statusOf maps domain error codes onto HTTP statuses. Missing entities are
// 404, state-machine and reconciliation refusals are 409, violated financial
// invariants are 422.
func statusOf(code domain.Code) int {
	switch code {
	case domain.CodeOrderNotFound,
		domain.CodeOrderItemNotFound,
		domain.CodeProductNotFound,
		domain.CodeTableNotFound,
		domain.CodeShiftNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidTransition,
		domain.CodeOrderImmutable,
		domain.CodeOrderCancelled,
		domain.CodeOrderNotTerminal,
		domain.CodeShiftAlreadyClosed,
		domain.CodeShiftHasUnfinishedOrders,
		domain.CodeManagerApprovalRequired,
		domain.CodeIdempotencyMismatch:
		return http.StatusConflict
	case domain.CodePaymentExceedsTotal,
		domain.CodeOrderNotFullyPaid,
		domain.CodeOrderNotReadyForCheckout,
		domain.CodeInvalidQuantity,
		domain.CodeInvalidAmount,
		domain.CodeInvalidPaymentMethod,
		domain.CodeProductInactive,
		domain.CodeInvalidOrder:
		return http.StatusUnprocessableEntity
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    string(domain.CodeUnknown),
			"message": "internal error",
		}})
		return
	}
	body := gin.H{
		"code":        string(de.Code),
		"message":     de.Message,
		"recoverable": de.Recoverable(),
	}
	if len(de.Meta) > 0 {
		body["meta"] = de.Meta
	}
	c.JSON(statusOf(de.Code), gin.H{"error": body})
}
