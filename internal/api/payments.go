package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/service/payment"
)

const headerIdempotencyKey = "Idempotency-Key"

// idempotent runs fn through the guard when the client supplied an
// Idempotency-Key; a replayed result answers 200 regardless of freshStatus.
func (s *Server) idempotent(c *gin.Context, operation string, freshStatus int, fn func(ctx context.Context) (any, error)) {
	key := c.GetHeader(headerIdempotencyKey)
	body, replayed, err := s.guard.Do(c.Request.Context(), key, operation, fn)
	if err != nil {
		writeError(c, err)
		return
	}
	status := freshStatus
	if replayed {
		status = http.StatusOK
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

type recordPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
}

// recordPayment appends to the ledger without touching order status.
func (s *Server) recordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	in := payment.RecordInput{
		OrderID: id,
		Amount:  req.Amount,
		Method:  domain.PaymentMethod(req.Method),
		ActorID: actor(c).StaffID,
	}
	s.idempotent(c, "payment.record", http.StatusCreated, func(ctx context.Context) (any, error) {
		p, err := s.payments.RecordPayment(ctx, in)
		if err != nil {
			return nil, err
		}
		paymentsRecorded.WithLabelValues(string(p.Method)).Inc()
		return viewPayment(p), nil
	})
}

// payOrder is the settle path: it records the payment and checks the order
// out automatically once completed payments cover the total.
func (s *Server) payOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	in := payment.RecordInput{
		OrderID: id,
		Amount:  req.Amount,
		Method:  domain.PaymentMethod(req.Method),
		ActorID: actor(c).StaffID,
	}
	s.idempotent(c, "order.pay", http.StatusCreated, func(ctx context.Context) (any, error) {
		p, checkedOut, err := s.payments.RecordOrderPayment(ctx, in)
		if err != nil {
			return nil, err
		}
		paymentsRecorded.WithLabelValues(string(p.Method)).Inc()
		if checkedOut {
			recordCheckout(true)
		}
		return gin.H{"payment": viewPayment(p), "checked_out": checkedOut}, nil
	})
}

func (s *Server) checkoutOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actorID := actor(c).StaffID
	s.idempotent(c, "order.checkout", http.StatusOK, func(ctx context.Context) (any, error) {
		if err := s.payments.Checkout(ctx, id, actorID); err != nil {
			recordCheckout(false)
			return nil, err
		}
		recordCheckout(true)
		return gin.H{"order_id": id, "status": string(domain.StatusServed)}, nil
	})
}

func (s *Server) tableOccupied(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	occupied, err := s.tables.IsOccupied(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table_id": id, "occupied": occupied})
}
