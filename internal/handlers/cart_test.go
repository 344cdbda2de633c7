package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	cartsvc "github.com/Skotchmaster/marketplace/internal/service/cart"
)

func newCartHandler(t *testing.T) (*CartHandler, *echo.Echo, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return &CartHandler{Cart: &cartsvc.Service{DB: db}}, echo.New(), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock uint) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, Stock: stock, IsActive: true, ShopkeeperID: 100}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func TestGetCartCreatesEmpty(t *testing.T) {
	h, e, _ := newCartHandler(t)

	c, rec := request(e, http.MethodGet, "/api/cart", "")
	asCustomer(c, 1)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decode(t, rec)["cart"].(map[string]any)
	require.Equal(t, float64(0), cart["total_price"])
}

func TestAddToCart(t *testing.T) {
	h, e, db := newCartHandler(t)
	p := seedProduct(t, db, "Widget", 10, 50)

	c, rec := request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":2}`, p.ID))
	asCustomer(c, 1)
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decode(t, rec)["cart"].(map[string]any)
	require.Equal(t, float64(20), cart["total_price"])
	require.Equal(t, float64(2), cart["total_items"])
}

func TestAddToCartDefaultsQuantityToOne(t *testing.T) {
	h, e, db := newCartHandler(t)
	p := seedProduct(t, db, "Widget", 10, 50)

	c, rec := request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d}`, p.ID))
	asCustomer(c, 1)
	require.NoError(t, h.AddToCart(c))

	cart := decode(t, rec)["cart"].(map[string]any)
	require.Equal(t, float64(1), cart["total_items"])
}

func TestAddToCartRejectsExplicitZero(t *testing.T) {
	h, e, db := newCartHandler(t)
	p := seedProduct(t, db, "Widget", 10, 50)

	c, _ := request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":0}`, p.ID))
	asCustomer(c, 1)
	requireHTTPError(t, h.AddToCart(c), http.StatusBadRequest)
}

func TestAddToCartErrors(t *testing.T) {
	h, e, db := newCartHandler(t)
	low := seedProduct(t, db, "Widget", 10, 2)
	inactive := seedProduct(t, db, "Gadget", 5, 10)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	c, _ := request(e, http.MethodPost, "/api/cart", `{"productId":999,"quantity":1}`)
	asCustomer(c, 1)
	requireHTTPError(t, h.AddToCart(c), http.StatusNotFound)

	c, _ = request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":1}`, inactive.ID))
	asCustomer(c, 1)
	requireHTTPError(t, h.AddToCart(c), http.StatusBadRequest)

	c, _ = request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":5}`, low.ID))
	asCustomer(c, 1)
	he := requireHTTPError(t, h.AddToCart(c), http.StatusBadRequest)
	require.Contains(t, he.Message, "available in stock")
}

func TestUpdateAndRemoveItem(t *testing.T) {
	h, e, db := newCartHandler(t)
	p := seedProduct(t, db, "Widget", 10, 50)

	c, _ := request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":2}`, p.ID))
	asCustomer(c, 1)
	require.NoError(t, h.AddToCart(c))

	c, rec := request(e, http.MethodPut, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":5}`, p.ID))
	asCustomer(c, 1)
	require.NoError(t, h.UpdateItem(c))
	cart := decode(t, rec)["cart"].(map[string]any)
	require.Equal(t, float64(50), cart["total_price"])

	c, rec = request(e, http.MethodDelete, "/api/cart/"+fmt.Sprint(p.ID), "")
	c.SetParamNames("productId")
	c.SetParamValues(fmt.Sprint(p.ID))
	asCustomer(c, 1)
	require.NoError(t, h.RemoveItem(c))
	cart = decode(t, rec)["cart"].(map[string]any)
	require.Equal(t, float64(0), cart["total_price"])
}

func TestClearCart(t *testing.T) {
	h, e, db := newCartHandler(t)
	p := seedProduct(t, db, "Widget", 10, 50)

	c, _ := request(e, http.MethodPost, "/api/cart", fmt.Sprintf(`{"productId":%d,"quantity":2}`, p.ID))
	asCustomer(c, 1)
	require.NoError(t, h.AddToCart(c))

	c, rec := request(e, http.MethodDelete, "/api/cart/clear", "")
	asCustomer(c, 1)
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decode(t, rec)["cart"].(map[string]any)
	require.Equal(t, float64(0), cart["total_items"])
}
