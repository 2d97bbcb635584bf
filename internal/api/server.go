// Package api is the HTTP edge: routing, auth extraction, request metrics
// and the mapping from domain errors to status codes. All business rules
// live in the services.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/idempotency"
	"restaurant-pos/internal/service/order"
	"restaurant-pos/internal/service/payment"
	"restaurant-pos/internal/service/shift"
	"restaurant-pos/internal/service/table"
)

type Server struct {
	orders   *order.Service
	payments *payment.Service
	shifts   *shift.Service
	tables   *table.Service
	guard    *idempotency.Guard

	jwtSecret string
	dev       bool
	lg        *logger.Logger
}

type Deps struct {
	Orders    *order.Service
	Payments  *payment.Service
	Shifts    *shift.Service
	Tables    *table.Service
	Guard     *idempotency.Guard
	JWTSecret string
	Dev       bool
	Logger    *logger.Logger
}

func NewServer(d Deps) *Server {
	return &Server{
		orders:    d.Orders,
		payments:  d.Payments,
		shifts:    d.Shifts,
		tables:    d.Tables,
		guard:     d.Guard,
		jwtSecret: d.JWTSecret,
		dev:       d.Dev,
		lg:        d.Logger,
	}
}

func (s *Server) Router() *gin.Engine {
	if !s.dev {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), metricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", s.authMiddleware())
	{
		authed.POST("/orders", s.createOrder)
		authed.GET("/orders", s.listOrders)
		authed.GET("/orders/:id", s.getOrder)
		authed.POST("/orders/:id/status", s.setOrderStatus)
		authed.POST("/orders/:id/cancel", s.cancelOrder)

		authed.POST("/orders/:id/items", s.addOrderItem)
		authed.PATCH("/orders/:id/items/:itemID", s.updateOrderItem)
		authed.DELETE("/orders/:id/items/:itemID", s.removeOrderItem)

		authed.POST("/orders/:id/payments", s.recordPayment)
		authed.POST("/orders/:id/pay", s.payOrder)
		authed.POST("/orders/:id/checkout", s.checkoutOrder)

		authed.GET("/tables/:id/occupied", s.tableOccupied)

		authed.GET("/shifts/:id/summary", s.shiftSummary)
		authed.POST("/shifts/:id/close", s.closeShift)
	}
	return r
}
