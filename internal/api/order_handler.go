package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bgovha/shopsphere-backend/internal/entity"
	"github.com/bgovha/shopsphere-backend/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder places an order for the authenticated buyer --> POST /api/orders
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	req := struct {
		Items []entity.ItemRequest `json:"items"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	idempotencyKey := c.Request().Header.Get("Idempotent-Key")

	order, err := h.orderService.PlaceOrder(c.Request().Context(), userID, req.Items, idempotencyKey)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"order":   order,
		"message": "Order created successfully",
	})
}

// ListOrders returns the buyer's orders --> GET /api/orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	orders, err := h.orderService.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, orders)
}

// GetOrder returns one of the buyer's orders --> GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

// CancelOrder cancels a pending order --> DELETE /api/orders/:id
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
	}

	order, err := h.orderService.CancelOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}
