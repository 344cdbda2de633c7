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
	cartsvc "github.com/Skotchmaster/marketplace/internal/service/cart"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type CartHandler struct {
	Cart     *cartsvc.Service
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func cartError(err error) error {
	var stockErr *cartsvc.InsufficientStockError
	switch {
	case errors.Is(err, cartsvc.ErrInvalidQuantity):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cartsvc.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, cartsvc.ErrProductUnavailable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, cartsvc.ErrCartNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &stockErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	cart, err := h.Cart.Get(c.Request().Context(), userID)
	if err != nil {
		return cartError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"cart": cart})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req struct {
		ProductID uint  `json:"productId"`
		Quantity  *uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product id is required")
	}

	// Quantity defaults to one when the field is absent; an explicit zero is
	// rejected by the service.
	quantity := uint(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.Cart.Add(c.Request().Context(), userID, req.ProductID, quantity)
	if err != nil {
		return cartError(err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  quantity,
	})

	return respond(c, http.StatusOK, echo.Map{
		"message": "Item added to cart",
		"cart":    cart,
	})
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req struct {
		ProductID uint `json:"productId"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product id is required")
	}

	cart, err := h.Cart.UpdateQuantity(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return cartError(err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_updated",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return respond(c, http.StatusOK, echo.Map{
		"message": "Cart updated successfully",
		"cart":    cart,
	})
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	cart, err := h.Cart.Remove(c.Request().Context(), userID, uint(productID))
	if err != nil {
		return cartError(err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})

	return respond(c, http.StatusOK, echo.Map{
		"message": "Item removed from cart",
		"cart":    cart,
	})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	cart, err := h.Cart.Clear(c.Request().Context(), userID)
	if err != nil {
		return cartError(err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	return respond(c, http.StatusOK, echo.Map{
		"message": "Cart cleared",
		"cart":    cart,
	})
}
