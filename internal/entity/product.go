package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int             `json:"category_id,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InStock reports whether the product has any units left.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// ProductSnapshot is the price and stock of one product as read inside the
// order placement transaction. Order lines are priced from the snapshot, never
// from the live product row.
type ProductSnapshot struct {
	ProductID     int
	Price         decimal.Decimal
	StockQuantity int
}
