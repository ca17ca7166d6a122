package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
)

// OrderService is the slice of the saga coordinator the HTTP surface needs.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID domain.CustomerID, products []domain.Product) (*domain.Order, error)
	GetOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	GetOrders(ctx context.Context, ids []domain.OrderID) ([]*domain.Order, error)
	ReserveOrder(ctx context.Context, id domain.OrderID) error
	CancelOrder(ctx context.Context, id domain.OrderID, reason string) error
	ShipOrder(ctx context.Context, id domain.OrderID) error
	DeliverOrder(ctx context.Context, id domain.OrderID) error
	DeleteOrder(ctx context.Context, id domain.OrderID) error
}

type OrderHandler struct {
	orderService OrderService
	timeout      time.Duration
	logger       *zap.Logger
}

func NewOrderHandler(orderService OrderService, timeout time.Duration, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		timeout:      timeout,
		logger:       logger,
	}
}

// Register mounts the order routes on a router group.
func (h *OrderHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/orders", h.CreateOrder)
	rg.GET("/orders", h.ListOrders)
	rg.GET("/orders/:id", h.GetOrder)
	rg.DELETE("/orders/:id", h.DeleteOrder)
	rg.POST("/orders/:id/confirm", h.ConfirmOrder)
	rg.POST("/orders/:id/cancel", h.CancelOrder)
	rg.POST("/orders/:id/ship", h.ShipOrder)
	rg.POST("/orders/:id/deliver", h.DeliverOrder)
}

type ProductResponse struct {
	ID          string   `json:"id"`
	Quantity    int      `json:"quantity"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Subtotal    float64  `json:"subtotal"`
}

type OrderResponse struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customerId"`
	OrderDate    int64             `json:"orderDate"`
	DeliveryDate int64             `json:"deliveryDate"`
	Status       string            `json:"status"`
	Products     []ProductResponse `json:"products"`
	Price        float64           `json:"price"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	products := order.Products()
	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp := ProductResponse{
			ID:       p.ID().String(),
			Quantity: p.Quantity().Int(),
			Subtotal: p.Subtotal(),
		}
		if name, ok := p.Name(); ok {
			s := name.String()
			resp.Name = &s
		}
		if desc, ok := p.Description(); ok {
			s := desc.String()
			resp.Description = &s
		}
		if price, ok := p.Price(); ok {
			v := price
			resp.Price = &v
		}
		responses = append(responses, resp)
	}
	return OrderResponse{
		ID:           order.ID().String(),
		CustomerID:   order.CustomerID().String(),
		OrderDate:    order.OrderDate().Millis(),
		DeliveryDate: order.DeliveryDate().Millis(),
		Status:       string(order.Status()),
		Products:     responses,
		Price:        order.Price(),
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var cmd domain.CreateOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondError(c, err)
		return
	}

	customerID, err := domain.ParseCustomerID(cmd.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := cmd.ToProducts()
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	order, err := h.orderService.CreateOrder(ctx, customerID, products)
	if err != nil {
		h.logger.Error("Failed to create order", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	cmd := domain.GetOrderCommand{ID: c.Param("id")}
	id, err := domain.ParseOrderID(cmd.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListOrders returns every order, or only those named by the comma-separated
// ids query parameter.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var cmd domain.GetOrdersCommand
	if raw := c.Query("ids"); raw != "" {
		cmd.IDs = strings.Split(raw, ",")
	}

	var ids []domain.OrderID
	for _, s := range cmd.IDs {
		id, err := domain.ParseOrderID(s)
		if err != nil {
			respondError(c, err)
			return
		}
		ids = append(ids, id)
	}

	orders, err := h.orderService.GetOrders(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}
	c.JSON(http.StatusOK, responses)
}

// ConfirmOrder requests confirmation: it triggers the stock reservation saga
// step and returns before the order is actually confirmed.
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, id domain.OrderID) error {
		return h.orderService.ReserveOrder(ctx, id)
	})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	// The body is optional; a missing reason cancels without one.
	_ = c.ShouldBindJSON(&body)

	h.mutate(c, func(ctx context.Context, id domain.OrderID) error {
		return h.orderService.CancelOrder(ctx, id, body.Reason)
	})
}

func (h *OrderHandler) ShipOrder(c *gin.Context) {
	h.mutate(c, h.orderService.ShipOrder)
}

func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	h.mutate(c, h.orderService.DeliverOrder)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	h.mutate(c, h.orderService.DeleteOrder)
}

func (h *OrderHandler) mutate(c *gin.Context, op func(context.Context, domain.OrderID) error) {
	id, err := domain.ParseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := h.boundedContext(c)
	defer cancel()

	if err := op(ctx, id); err != nil {
		h.logger.Error("Order operation failed",
			zap.String("order_id", id.String()),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// boundedContext caps how long a read/mutate/persist/publish sequence may
// run; an already committed mutation is not rolled back on expiry.
func (h *OrderHandler) boundedContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}
