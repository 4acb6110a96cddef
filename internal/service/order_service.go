package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/bgovha/shopsphere-backend/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// OrderStore is the transactional persistence contract for orders. Every
// method is all-or-nothing: a failure leaves the datastore untouched.
type OrderStore interface {
	PlaceOrder(ctx context.Context, userID int, lines []entity.ItemRequest) (*entity.Order, error)
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error)
	CancelOrder(ctx context.Context, id int) (*entity.Order, error)
}

// OrderService is a service that provides order-related operations.
type OrderService struct {
	orders      OrderStore
	kafkaWriter *kafka.Writer
	rdb         *redis.Client
}

// NewOrderService creates a new instance of OrderService. The kafka writer
// and redis client may be nil, which disables event publishing and the
// idempotency check respectively.
func NewOrderService(orders OrderStore, kafkaWriter *kafka.Writer, rdb *redis.Client) *OrderService {
	return &OrderService{
		orders:      orders,
		kafkaWriter: kafkaWriter,
		rdb:         rdb,
	}
}

// PlaceOrder places an order for the authenticated buyer. Input is validated
// before any transaction is opened; the store then performs the atomic
// snapshot-price-and-decrement sequence. Events are published after commit
// and never fail the placed order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int, lines []entity.ItemRequest, idempotencyKey string) (*entity.Order, error) {
	if len(lines) == 0 {
		return nil, &entity.ValidationError{Code: "empty_order"}
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &entity.ValidationError{Code: "invalid_quantity", ProductID: line.ProductID}
		}
	}

	if idempotencyKey != "" {
		ok, err := s.claimIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &entity.ConflictError{Reason: "idempotency key already used"}
		}
	}

	order, err := s.orders.PlaceOrder(ctx, userID, lines)
	if err != nil {
		logger.Error().Err(err).Int("user_id", userID).Msg("Error placing order")
		return nil, err
	}

	s.publishOrderEvent(ctx, order, "created")

	return order, nil
}

// GetOrder returns the order with its items. Buyers only see their own
// orders; someone else's order id reads as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int) (*entity.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, &entity.NotFoundError{Resource: "order", ID: orderID}
	}
	return order, nil
}

// ListOrders returns the buyer's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int) ([]*entity.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int("user_id", userID).Msg("Error listing orders")
		return nil, err
	}
	return orders, nil
}

// CancelOrder cancels a pending order and returns its stock.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int) (*entity.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, &entity.NotFoundError{Resource: "order", ID: orderID}
	}

	cancelled, err := s.orders.CancelOrder(ctx, orderID)
	if err != nil {
		logger.Error().Err(err).Int("order_id", orderID).Msg("Error cancelling order")
		return nil, err
	}

	s.publishOrderEvent(ctx, cancelled, "cancelled")

	return cancelled, nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, order *entity.Order, event string) {
	if s.kafkaWriter == nil {
		return
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		logger.Error().Err(err).Int("order_id", order.ID).Msg("Error marshalling order event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%d", event, order.ID)),
		Value: orderJSON,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Int("order_id", order.ID).Msgf("Error publishing order %s event", event)
	}
}

func (s *OrderService) claimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	set, err := s.rdb.SetNX(ctx, redisKey, "exists", 24*time.Hour).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}

	return set, nil
}
