package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/service/shift"
)

func (s *Server) shiftSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sum, err := s.shifts.Summary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewShiftSummary(sum))
}

type closeShiftRequest struct {
	CountedCash *int64 `json:"counted_cash" binding:"required"`
}

func (s *Server) closeShift(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req closeShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	in := shift.CloseInput{
		ShiftID:     id,
		CountedCash: *req.CountedCash,
		ActorID:     actor(c).StaffID,
	}
	if approver, ok := auth.ApproverFrom(c.Request.Context()); ok {
		in.ApprovalActorID = &approver.StaffID
	}
	res, err := s.shifts.Close(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	shiftsClosed.Inc()
	c.JSON(http.StatusOK, viewShiftClose(res))
}
