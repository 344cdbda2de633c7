package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	ordersvc "github.com/Skotchmaster/marketplace/internal/service/order"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type OrderHandler struct {
	Orders   *ordersvc.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func orderError(err error) error {
	var unavailErr *ordersvc.ProductUnavailableError
	var stockErr *ordersvc.InsufficientStockError
	switch {
	case errors.Is(err, ordersvc.ErrInvalidAddress),
		errors.Is(err, ordersvc.ErrEmptyCart),
		errors.Is(err, ordersvc.ErrInvalidPayment),
		errors.Is(err, ordersvc.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &unavailErr), errors.As(err, &stockErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ordersvc.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ordersvc.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	default:
		return err
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "order_place")

	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req struct {
		ShippingAddress struct {
			Street  string `json:"street"`
			City    string `json:"city"`
			State   string `json:"state"`
			ZipCode string `json:"zipCode"`
			Country string `json:"country"`
		} `json:"shippingAddress"`
		PaymentMethod string `json:"paymentMethod"`
		Notes         string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Orders.Place(c.Request().Context(), userID, ordersvc.PlaceRequest{
		Address: models.ShippingAddress{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		return orderError(err)
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"totalAmount": order.TotalAmount,
	})

	l.Info("order_placed", "user_id", userID, "order_number", order.OrderNumber)
	return respond(c, http.StatusCreated, echo.Map{
		"message": "Order placed successfully",
		"order":   order,
	})
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	res, err := h.Orders.ListMine(c.Request().Context(), userID, page, limit)
	if err != nil {
		return orderError(err)
	}

	return respond(c, http.StatusOK, echo.Map{
		"count":       len(res.Orders),
		"total":       res.Total,
		"totalPages":  res.TotalPages,
		"currentPage": res.CurrentPage,
		"orders":      res.Orders,
	})
}

func (h *OrderHandler) ReceivedOrders(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	res, err := h.Orders.ListReceived(c.Request().Context(), userID, page, limit)
	if err != nil {
		return orderError(err)
	}

	return respond(c, http.StatusOK, echo.Map{
		"count":       len(res.Orders),
		"total":       res.Total,
		"totalPages":  res.TotalPages,
		"currentPage": res.CurrentPage,
		"orders":      res.Orders,
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Orders.GetByID(c.Request().Context(), userID, uint(orderID))
	if err != nil {
		return orderError(err)
	}

	return respond(c, http.StatusOK, echo.Map{"order": order})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "order_update_status")

	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), userID, uint(orderID), req.Status)
	if err != nil {
		return orderError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"userID":  userID,
		"orderID": order.ID,
		"status":  order.OrderStatus,
	})

	l.Info("order_status_updated", "order_id", order.ID, "status", order.OrderStatus)
	return respond(c, http.StatusOK, echo.Map{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
