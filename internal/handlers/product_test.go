package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func newProductHandler(t *testing.T) (*ProductHandler, *echo.Echo, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return &ProductHandler{DB: db}, echo.New(), db
}

func TestCreateAndGetProduct(t *testing.T) {
	h, e, _ := newProductHandler(t)

	c, rec := request(e, http.MethodPost, "/api/products", `{"name":"Widget","description":"a widget","price":10,"stock":5}`)
	asShopkeeper(c, 100)
	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode(t, rec)["product"].(map[string]any)
	require.Equal(t, "Widget", created["name"])
	require.Equal(t, float64(100), created["shopkeeper_id"])
	id := int(created["id"].(float64))

	c, rec = request(e, http.MethodGet, "/api/products/"+fmt.Sprint(id), "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(id))
	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProductsListsActiveOnly(t *testing.T) {
	h, e, db := newProductHandler(t)
	seedProduct(t, db, "Widget", 10, 5)
	inactive := seedProduct(t, db, "Gadget", 5, 5)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	c, rec := request(e, http.MethodGet, "/api/products", "")
	require.NoError(t, h.GetProducts(c))
	body := decode(t, rec)
	products := body["products"].([]any)
	require.Len(t, products, 1)
	meta := body["meta"].(map[string]any)
	require.Equal(t, float64(1), meta["total"])
}

func TestUpdateProductOwnership(t *testing.T) {
	h, e, db := newProductHandler(t)
	p := seedProduct(t, db, "Widget", 10, 5) // shopkeeper 100

	c, _ := request(e, http.MethodPut, "/api/products/"+fmt.Sprint(p.ID), `{"price":12}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	asShopkeeper(c, 999)
	requireHTTPError(t, h.UpdateProduct(c), http.StatusForbidden)

	c, rec := request(e, http.MethodPut, "/api/products/"+fmt.Sprint(p.ID), `{"price":12,"stock":7}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	asShopkeeper(c, 100)
	require.NoError(t, h.UpdateProduct(c))
	updated := decode(t, rec)["product"].(map[string]any)
	require.Equal(t, float64(12), updated["price"])
	require.Equal(t, float64(7), updated["stock"])
}

func TestDeleteProductDeactivates(t *testing.T) {
	h, e, db := newProductHandler(t)
	p := seedProduct(t, db, "Widget", 10, 5)

	c, rec := request(e, http.MethodDelete, "/api/products/"+fmt.Sprint(p.ID), "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	asShopkeeper(c, 100)
	require.NoError(t, h.DeleteProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.False(t, stored.IsActive)
}
