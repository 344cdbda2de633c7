package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrCartNotFound       = errors.New("cart not found")
)

type InsufficientStockError struct {
	ProductName string
	Available   uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items of %s available in stock", e.Available, e.ProductName)
}

// Service owns the per-user cart. Every operation re-reads the cart inside
// its own transaction, mutates it through the Cart methods, recomputes
// totals and writes the full item set back.
type Service struct {
	DB *gorm.DB
}

// Get returns the user's cart, creating an empty one on first read.
func (s *Service) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return createCart(s.DB.WithContext(ctx), userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

// Add puts quantity units of the product into the cart, merging with an
// existing line. The product must be active and have enough stock; its
// current price is captured only when the line is first created.
func (s *Service) Add(ctx context.Context, userID, productID, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var cart *models.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := activeProduct(tx, productID)
		if err != nil {
			return err
		}

		c, err := loadOrCreate(tx, userID)
		if err != nil {
			return err
		}

		// Stock must cover the merged line, not just the increment.
		if product.Stock < quantity+quantityOf(c, productID) {
			return &InsufficientStockError{ProductName: product.Name, Available: product.Stock}
		}
		c.AddItem(productID, quantity, product.Price)
		if err := save(tx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity sets the absolute quantity for a line. Updating a product
// that is not in the cart leaves the cart unchanged: the client may race a
// removal and the fresh cart in the response lets it resync.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var cart *models.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := activeProduct(tx, productID)
		if err != nil {
			return err
		}
		if product.Stock < quantity {
			return &InsufficientStockError{ProductName: product.Name, Available: product.Stock}
		}

		c, err := load(tx, userID)
		if err != nil {
			return err
		}
		c.UpdateItemQuantity(productID, quantity)
		if err := save(tx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove drops the line for the product; removing an absent product is a
// no-op.
func (s *Service) Remove(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	var cart *models.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := load(tx, userID)
		if err != nil {
			return err
		}
		c.RemoveItem(productID)
		if err := save(tx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart. The cart row itself stays.
func (s *Service) Clear(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart *models.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := load(tx, userID)
		if err != nil {
			return err
		}
		c.Clear()
		if err := save(tx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func quantityOf(cart *models.Cart, productID uint) uint {
	for _, it := range cart.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func activeProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	return &product, nil
}

func load(tx *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func loadOrCreate(tx *gorm.DB, userID uint) (*models.Cart, error) {
	cart, err := load(tx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return createCart(tx, userID)
	}
	return cart, err
}

// createCart inserts a fresh cart row. Two requests can race past the first
// read; the loser hits the user_id unique index and picks up the winner's row.
func createCart(tx *gorm.DB, userID uint) (*models.Cart, error) {
	c := models.Cart{UserID: userID}
	if err := tx.Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return load(tx, userID)
		}
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// save recomputes totals and replaces the cart's item rows wholesale. The
// enclosing transaction re-read the cart first, so concurrent mutations to
// the same cart settle as last-writer-wins without losing other users' data.
func save(tx *gorm.DB, cart *models.Cart) error {
	cart.Recalculate()

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("replace cart items: %w", err)
	}
	for i := range cart.Items {
		cart.Items[i].ID = 0
		cart.Items[i].CartID = cart.ID
	}
	if len(cart.Items) > 0 {
		if err := tx.Create(&cart.Items).Error; err != nil {
			return fmt.Errorf("replace cart items: %w", err)
		}
	}

	updates := map[string]any{
		"total_price": cart.TotalPrice,
		"total_items": cart.TotalItems,
	}
	if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update cart totals: %w", err)
	}
	return nil
}
