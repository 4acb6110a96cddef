package entity

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input: an empty order, a non-positive
// quantity, a missing field. Surfaced to the caller as a client error.
type ValidationError struct {
	Code      string `json:"code"`
	ProductID int    `json:"product_id,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.ProductID != 0 {
		return fmt.Sprintf("validation failed: %s (product %d)", e.Code, e.ProductID)
	}
	return fmt.Sprintf("validation failed: %s", e.Code)
}

// NotFoundError reports a reference to a record that does not exist.
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       int    `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// StockShortage describes one line whose requested quantity exceeds the
// available stock.
type StockShortage struct {
	ProductID int `json:"product_id"`
	Available int `json:"available"`
	Requested int `json:"requested"`
}

// InsufficientStockError names every short product and its shortfall.
type InsufficientStockError struct {
	Shortages []StockShortage `json:"shortages"`
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("product %d: available %d, requested %d", s.ProductID, s.Available, s.Requested))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// ConflictError reports a request that lost a race: an oversell detected at
// the atomic stock decrement, a reused idempotency key, a cancel of an order
// that already left the pending state. The caller may retry.
type ConflictError struct {
	Reason string `json:"reason"`
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}
