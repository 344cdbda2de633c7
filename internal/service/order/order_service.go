package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/util"
)

var (
	ErrInvalidAddress = errors.New("complete shipping address is required")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidPayment = errors.New("invalid payment method")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrOrderNotFound  = errors.New("order not found")
)

type ProductUnavailableError struct {
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is no longer available", e.ProductName)
}

type InsufficientStockError struct {
	ProductName string
	Available   uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available", e.ProductName, e.Available)
}

// Service converts carts into orders and manages order lifecycle. Placing an
// order is the only multi-entity write in the system and runs as a single
// transaction: either every stock decrement applies and the cart empties, or
// nothing changes.
type Service struct {
	DB *gorm.DB
}

type PlaceRequest struct {
	Address       models.ShippingAddress
	PaymentMethod string
	Notes         string
}

func (s *Service) Place(ctx context.Context, userID uint, req PlaceRequest) (*models.Order, error) {
	if !req.Address.Complete() {
		return nil, ErrInvalidAddress
	}

	method := models.PaymentCOD
	if req.PaymentMethod != "" {
		m, ok := models.ParsePaymentMethod(req.PaymentMethod)
		if !ok {
			return nil, ErrInvalidPayment
		}
		method = m
	}

	var placed *models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}
		cart.Recalculate()

		// Validate every line before touching any stock.
		products := make(map[uint]*models.Product, len(cart.Items))
		for _, it := range cart.Items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ProductUnavailableError{ProductName: fmt.Sprintf("#%d", it.ProductID)}
				}
				return fmt.Errorf("load product: %w", err)
			}
			if !p.IsActive {
				return &ProductUnavailableError{ProductName: p.Name}
			}
			if p.Stock < it.Quantity {
				return &InsufficientStockError{ProductName: p.Name, Available: p.Stock}
			}
			products[p.ID] = &p
		}

		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, it := range cart.Items {
			p := products[it.ProductID]
			items = append(items, models.OrderItem{
				ProductID:    it.ProductID,
				ProductName:  p.Name,
				Quantity:     it.Quantity,
				Price:        it.Price,
				ShopkeeperID: p.ShopkeeperID,
			})
		}

		order := models.Order{
			OrderNumber:     newOrderNumber(),
			CustomerID:      userID,
			Items:           items,
			ShippingAddress: req.Address,
			PaymentMethod:   method,
			PaymentStatus:   models.PaymentPending,
			OrderStatus:     models.OrderPending,
			TotalAmount:     cart.TotalPrice,
			TotalItems:      cart.TotalItems,
			Notes:           req.Notes,
		}
		// The first insert runs under a savepoint: on postgres a failed
		// statement aborts the whole transaction, and the collision retry
		// below must still be able to write.
		err := tx.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&order).Error
		})
		if err != nil {
			if !isUniqueViolation(err) {
				return fmt.Errorf("create order: %w", err)
			}
			// Order number collided: retry once with a fresh one.
			order.ID = 0
			order.OrderNumber = newOrderNumber()
			for i := range order.Items {
				order.Items[i].ID = 0
				order.Items[i].OrderID = 0
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("create order: %w", err)
			}
		}

		// Compare-and-decrement per product. The stock >= quantity guard in
		// the WHERE clause means a concurrent sale surfaces as zero affected
		// rows, which aborts and rolls back the whole order.
		for _, it := range cart.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				var p models.Product
				if err := tx.First(&p, it.ProductID).Error; err == nil {
					return &InsufficientStockError{ProductName: p.Name, Available: p.Stock}
				}
				return &InsufficientStockError{ProductName: products[it.ProductID].Name}
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		updates := map[string]any{"total_price": 0, "total_items": 0}
		if err := tx.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		placed = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

type Page struct {
	Orders      []models.Order
	Total       int64
	TotalPages  int64
	CurrentPage int
}

// ListMine returns the customer's own orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID uint, page, size int) (*Page, error) {
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	q := s.DB.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	var orders []models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").
		Where("customer_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &Page{
		Orders:      orders,
		Total:       total,
		TotalPages:  (total + int64(limit) - 1) / int64(limit),
		CurrentPage: page,
	}, nil
}

// ListReceived returns orders that contain at least one item owned by the
// shopkeeper, newest first.
func (s *Service) ListReceived(ctx context.Context, shopkeeperID uint, page, size int) (*Page, error) {
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	ids := s.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("DISTINCT order_id").
		Where("shopkeeper_id = ?", shopkeeperID)

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id IN (?)", ids).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	var orders []models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").
		Where("id IN (?)", ids).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &Page{
		Orders:      orders,
		Total:       total,
		TotalPages:  (total + int64(limit) - 1) / int64(limit),
		CurrentPage: page,
	}, nil
}

// GetByID returns a single order to its customer or to any shopkeeper who
// owns an item in it.
func (s *Service) GetByID(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.CustomerID != userID && !hasShopkeeper(&order, userID) {
		return nil, ErrNotAuthorized
	}
	return &order, nil
}

// Transitions move forward only: an order never leaves Delivered or
// Cancelled, and cannot skip or reverse steps.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
}

func canTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves the order along the fulfilment state machine. The
// acting user must own at least one item in the order.
func (s *Service) UpdateStatus(ctx context.Context, shopkeeperID, orderID uint, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	var updated *models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("load order: %w", err)
		}

		if !hasShopkeeper(&order, shopkeeperID) {
			return ErrNotAuthorized
		}
		if !canTransition(order.OrderStatus, next) {
			return fmt.Errorf("%w: cannot move %s to %s", ErrInvalidStatus, order.OrderStatus, next)
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("order_status", next).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		order.OrderStatus = next
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func hasShopkeeper(order *models.Order, userID uint) bool {
	for _, it := range order.Items {
		if it.ShopkeeperID == userID {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
