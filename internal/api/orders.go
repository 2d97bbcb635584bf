package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/service/order"
)

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code": "BAD_REQUEST", "message": "invalid " + name,
		}})
		return 0, false
	}
	return id, true
}

type createOrderRequest struct {
	Type    string `json:"type" binding:"required"`
	TableID *int64 `json:"table_id"`
	ShiftID int64  `json:"shift_id" binding:"required"`
	Items   []struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity" binding:"required"`
	} `json:"items"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	in := order.CreateInput{
		Type:    domain.OrderType(req.Type),
		TableID: req.TableID,
		ShiftID: req.ShiftID,
		StaffID: actor(c).StaffID,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, order.CreateItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := s.orders.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	d, err := s.orders.Get(c.Request.Context(), o.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewDetail(d))
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewDetail(d))
}

func (s *Server) listOrders(c *gin.Context) {
	shiftID, err := strconv.ParseInt(c.Query("shift_id"), 10, 64)
	if err != nil || shiftID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code": "BAD_REQUEST", "message": "shift_id query parameter is required",
		}})
		return
	}
	var statuses []domain.OrderStatus
	if raw := c.Query("status"); raw != "" {
		st := domain.OrderStatus(raw)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"code": "BAD_REQUEST", "message": "unknown status " + raw,
			}})
			return
		}
		statuses = append(statuses, st)
	}
	orders, err := s.orders.ListByShift(c.Request.Context(), shiftID, statuses...)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, viewOrder(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) setOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	next := domain.OrderStatus(req.Status)
	if !next.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code": "BAD_REQUEST", "message": "unknown status " + req.Status,
		}})
		return
	}
	if err := s.orders.SetStatus(c.Request.Context(), id, next, actor(c).StaffID); err != nil {
		writeError(c, err)
		return
	}
	d, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewDetail(d))
}

func (s *Server) cancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.orders.Cancel(c.Request.Context(), id, actor(c).StaffID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": string(domain.StatusCancelled)})
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

func (s *Server) addOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	item, err := s.orders.AddItem(c.Request.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewItem(item))
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (s *Server) updateOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	if err := s.orders.UpdateItemQuantity(c.Request.Context(), id, itemID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	d, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewDetail(d))
}

func (s *Server) removeOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}
	if err := s.orders.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		writeError(c, err)
		return
	}
	d, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewDetail(d))
}
