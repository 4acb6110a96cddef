package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// PlaceOrder runs the whole placement as one transaction: read a price+stock
// snapshot per line, validate every line before touching anything, insert the
// order and its items with the snapshot prices, then decrement stock with an
// atomic conditional update. A decrement that matches no row means a
// concurrent order won the remaining stock after our snapshot; the whole
// transaction rolls back with a ConflictError and the caller may retry.
func (r *OrderRepository) PlaceOrder(ctx context.Context, userID int, lines []entity.ItemRequest) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snapshots := make(map[int]entity.ProductSnapshot, len(lines))
	for _, line := range lines {
		if _, ok := snapshots[line.ProductID]; ok {
			continue
		}
		snap := entity.ProductSnapshot{ProductID: line.ProductID}
		query := `SELECT price, stock_quantity FROM products WHERE id = ?`
		err := tx.QueryRowContext(ctx, query, line.ProductID).Scan(&snap.Price, &snap.StockQuantity)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &entity.NotFoundError{Resource: "product", ID: line.ProductID}
		}
		if err != nil {
			return nil, err
		}
		snapshots[line.ProductID] = snap
	}

	order, err := entity.NewPendingOrder(userID, lines, snapshots)
	if err != nil {
		return nil, err
	}

	orderQuery := `INSERT INTO orders (order_number, user_id, status, total_amount, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, order.OrderNumber, order.UserID, order.Status, order.TotalAmount, order.CreatedAt)
	if err != nil {
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	order.ID = int(orderID)

	// Batch insert the order items.
	itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase) VALUES `
	var values []any
	for _, item := range order.Items {
		itemQuery += "(?, ?, ?, ?),"
		values = append(values, orderID, item.ProductID, item.Quantity, item.PriceAtPurchase)
	}
	itemQuery = itemQuery[:len(itemQuery)-1]

	if _, err := tx.ExecContext(ctx, itemQuery, values...); err != nil {
		return nil, err
	}

	// stock_quantity never goes below zero: the WHERE guard makes the
	// decrement conditional, and zero affected rows means oversell.
	decrementQuery := `UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?`
	for _, item := range order.Items {
		res, err := tx.ExecContext(ctx, decrementQuery, item.Quantity, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, &entity.ConflictError{Reason: "stock changed concurrently, retry the order"}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return order, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	orderQuery := `SELECT id, order_number, user_id, status, total_amount, created_at FROM orders WHERE id = ?`

	order := &entity.Order{}
	err := r.db.QueryRowContext(ctx, orderQuery, id).Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entity.NotFoundError{Resource: "order", ID: id}
	}
	if err != nil {
		return nil, err
	}

	items, err := r.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *OrderRepository) getOrderItems(ctx context.Context, orderID int) ([]entity.OrderItem, error) {
	itemQuery := `SELECT id, order_id, product_id, quantity, price_at_purchase FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, itemQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		item := entity.OrderItem{}
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PriceAtPurchase)
		if err != nil {
			return nil, err
		}
		item.Subtotal = item.PriceAtPurchase.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	orderQuery := `SELECT id, order_number, user_id, status, total_amount, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, orderQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order := &entity.Order{}
		err := rows.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.getOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

// CancelOrder flips a pending order to cancelled and returns every line's
// quantity to stock, all in one transaction. Orders past pending are not
// cancellable here.
func (r *OrderRepository) CancelOrder(ctx context.Context, id int) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order := &entity.Order{}
	orderQuery := `SELECT id, order_number, user_id, status, total_amount, created_at FROM orders WHERE id = ?`
	err = tx.QueryRowContext(ctx, orderQuery, id).Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entity.NotFoundError{Resource: "order", ID: id}
	}
	if err != nil {
		return nil, err
	}

	if order.Status != entity.OrderStatusPending {
		return nil, &entity.ConflictError{Reason: "only pending orders can be cancelled"}
	}

	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ? AND status = ?`, entity.OrderStatusCancelled, id, entity.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, &entity.ConflictError{Reason: "order status changed concurrently"}
	}
	order.Status = entity.OrderStatusCancelled

	itemRows, err := tx.QueryContext(ctx, `SELECT id, order_id, product_id, quantity, price_at_purchase FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	for itemRows.Next() {
		item := entity.OrderItem{}
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PriceAtPurchase); err != nil {
			itemRows.Close()
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := itemRows.Close(); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx, `UPDATE products SET stock_quantity = stock_quantity + ? WHERE id = ?`, item.Quantity, item.ProductID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}
