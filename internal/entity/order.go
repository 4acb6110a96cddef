package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID          int             `json:"id"`
	OrderNumber string          `json:"order_number"`
	UserID      int             `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `json:"items"`
}

// OrderItem is immutable once created. PriceAtPurchase is the catalog price at
// the moment the order was placed; later price changes never touch it.
type OrderItem struct {
	ID              int             `json:"id"`
	OrderID         int             `json:"order_id"`
	ProductID       int             `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// ItemRequest is one requested line of an order: which product, how many.
type ItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// NewPendingOrder validates the requested lines against the given product
// snapshots and assembles a pending order with per-line price snapshots and an
// exact decimal total. It performs no mutation: every line is checked before
// the caller writes anything, so a shortage on line three never leaves line
// one half-applied.
//
// Lines are processed in caller order; items come out in the same order.
func NewPendingOrder(userID int, lines []ItemRequest, products map[int]ProductSnapshot) (*Order, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Code: "empty_order"}
	}

	order := &Order{
		OrderNumber: uuid.NewString(),
		UserID:      userID,
		Status:      OrderStatusPending,
		CreatedAt:   time.Now().UTC(),
		Items:       make([]OrderItem, 0, len(lines)),
	}

	var shortages []StockShortage
	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Code: "invalid_quantity", ProductID: line.ProductID}
		}

		snap, ok := products[line.ProductID]
		if !ok {
			return nil, &NotFoundError{Resource: "product", ID: line.ProductID}
		}

		if snap.StockQuantity < line.Quantity {
			shortages = append(shortages, StockShortage{
				ProductID: line.ProductID,
				Available: snap.StockQuantity,
				Requested: line.Quantity,
			})
			continue
		}

		subtotal := snap.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, OrderItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: snap.Price,
			Subtotal:        subtotal,
		})
		total = total.Add(subtotal)
	}

	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	order.TotalAmount = total
	return order, nil
}
