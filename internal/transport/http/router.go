package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/handlers"
	authmw "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
	Auth           *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout, d.Auth.RequireAuth)
	auth.PUT("/change-password", d.AuthHandler.ChangePassword, d.Auth.RequireAuth)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)
	auth.PUT("/profile", d.AuthHandler.UpdateProfile, d.Auth.RequireAuth)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}
	products.POST("", d.ProductHandler.CreateProduct, d.Auth.RequireRole(models.RoleShopkeeper))
	products.PUT("/:id", d.ProductHandler.UpdateProduct, d.Auth.RequireRole(models.RoleShopkeeper))
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.Auth.RequireRole(models.RoleShopkeeper))

	cart := api.Group("/cart", d.Auth.RequireRole(models.RoleCustomer))
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("", d.CartHandler.UpdateItem)
	cart.DELETE("/clear", d.CartHandler.ClearCart)
	cart.DELETE("/:productId", d.CartHandler.RemoveItem)

	orders := api.Group("/orders")
	orders.POST("", d.OrderHandler.PlaceOrder, d.Auth.RequireRole(models.RoleCustomer))
	orders.GET("/my-orders", d.OrderHandler.MyOrders, d.Auth.RequireRole(models.RoleCustomer))
	orders.GET("/received", d.OrderHandler.ReceivedOrders, d.Auth.RequireRole(models.RoleShopkeeper))
	orders.GET("/:id", d.OrderHandler.GetOrder, d.Auth.RequireAuth)
	orders.PUT("/:id/status", d.OrderHandler.UpdateStatus, d.Auth.RequireRole(models.RoleShopkeeper))
}
