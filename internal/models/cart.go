package models

import "time"

// Cart is the per-user collection of pending purchase intents. Totals are
// derived fields: callers must run Recalculate before persisting.
type Cart struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null"        json:"user_id"`
	Items      []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice float64    `json:"total_price"`
	TotalItems uint       `json:"total_items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"                       json:"id"`
	CartID    uint    `gorm:"index;not null;uniqueIndex:idx_cart_product"    json:"cart_id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_cart_product"          json:"product_id"`
	Quantity  uint    `gorm:"not null;check:quantity>0"                      json:"quantity"`
	// Price is captured when the item is first added; it is not re-read from
	// the catalog on merge, so the displayed cart total stays stable.
	Price float64 `gorm:"not null" json:"price"`
}

// AddItem merges the quantity into an existing line for the same product or
// appends a new one. The captured price of an existing line is kept.
func (c *Cart) AddItem(productID, quantity uint, price float64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{CartID: c.ID, ProductID: productID, Quantity: quantity, Price: price})
}

// UpdateItemQuantity sets the absolute quantity of an existing line. Updating
// a product that is not in the cart is a no-op.
func (c *Cart) UpdateItemQuantity(productID, quantity uint) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem drops the line for the product if present.
func (c *Cart) RemoveItem(productID uint) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and zeroes both totals.
func (c *Cart) Clear() {
	c.Items = nil
	c.TotalPrice = 0
	c.TotalItems = 0
}

// Recalculate recomputes both totals from the items.
func (c *Cart) Recalculate() {
	var items uint
	var price float64
	for _, it := range c.Items {
		items += it.Quantity
		price += float64(it.Quantity) * it.Price
	}
	c.TotalItems = items
	c.TotalPrice = price
}
