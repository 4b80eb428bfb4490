package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sebeiconnect/marketplace/internal/kafka"
	"github.com/sebeiconnect/marketplace/internal/logger"
	"github.com/sebeiconnect/marketplace/internal/redisx"
)

// EventPublisher is satisfied by kafka.Producer; tests plug in a no-op.
type EventPublisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Service is the order lifecycle manager. It owns creation of orders
// against listed inventory, enforces the status state machine and
// reconciles inventory on cancellation. All durable state lives in the
// Store; the service itself holds no locks.
type Service interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	GetOrder(ctx context.Context, orderID, actorID string) (*Order, error)
	ListOrders(ctx context.Context, p ListParams) ([]Order, int64, error)
	TransitionStatus(ctx context.Context, orderID, actorID string, to Status, trackingCode string) (*Order, error)
	CancelOrder(ctx context.Context, orderID, actorID, reason string) (*Order, error)
	Stats(ctx context.Context, userID string, role Role) (*Stats, error)
}

type service struct {
	store    Store
	producer EventPublisher
	cache    *redis.Client
	name     string
	log      logger.Logger
}

func NewService(store Store, producer EventPublisher, cache *redis.Client, name string, log logger.Logger) Service {
	return &service{store: store, producer: producer, cache: cache, name: name, log: log}
}

func (s *service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidQuantity, in.Quantity)
	}

	o, err := s.store.CreateOrder(ctx, in)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			s.log.Errorf("create order for buyer %s: %v", in.BuyerID, err)
		}
		return nil, err
	}
	s.log.Infof("order %s (%s) created: buyer=%s listing=%s qty=%s total=%s",
		o.ID, o.OrderNumber, o.BuyerID, o.ListingID, o.Quantity, o.TotalAmount)

	s.cacheStatus(ctx, o)
	s.invalidateStats(ctx, o)
	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		ListingID:   o.ListingID,
		Quantity:    o.Quantity,
		TotalAmount: o.TotalAmount,
	})
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, actorID string) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(actorID) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, p ListParams) ([]Order, int64, error) {
	return s.store.List(ctx, p)
}

func (s *service) TransitionStatus(ctx context.Context, orderID, actorID string, to Status, trackingCode string) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(actorID) {
		return nil, ErrForbidden
	}
	from := o.Status

	// The store re-validates the transition under the row lock. Status
	// changes never touch listing inventory; only cancellation does.
	updated, err := s.store.TransitionStatus(ctx, orderID, to, trackingCode)
	if err != nil {
		return nil, err
	}
	s.log.Infof("order %s status %s -> %s by %s", orderID, from, to, actorID)

	s.cacheStatus(ctx, updated)
	s.invalidateStats(ctx, updated)
	s.publish(ctx, TopicOrderStatusUpdated, EventOrderStatusUpdated, updated.ID, OrderStatusUpdatedPayload{
		OrderID:      updated.ID,
		From:         from,
		To:           updated.Status,
		TrackingCode: trackingCode,
	})
	return updated, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID, actorID, reason string) (*Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(actorID) {
		return nil, ErrForbidden
	}

	cancelled, err := s.store.CancelOrder(ctx, orderID, reason)
	if err != nil {
		return nil, err
	}
	s.log.Infof("order %s cancelled by %s, %s restored to listing %s",
		orderID, actorID, cancelled.Quantity, cancelled.ListingID)

	s.cacheStatus(ctx, cancelled)
	s.invalidateStats(ctx, cancelled)
	s.publish(ctx, TopicOrderCancelled, EventOrderCancelled, cancelled.ID, OrderCancelledPayload{
		OrderID:          cancelled.ID,
		ListingID:        cancelled.ListingID,
		QuantityRestored: cancelled.Quantity,
		Reason:           reason,
	})
	return cancelled, nil
}

func (s *service) Stats(ctx context.Context, userID string, role Role) (*Stats, error) {
	key := fmt.Sprintf(redisx.KeyOrderStats, role, userID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var st Stats
			if json.Unmarshal(raw, &st) == nil {
				return &st, nil
			}
		}
	}

	st, err := s.store.Stats(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, kafkax.MustMarshal(st), redisx.TTLStatsCache).Err()
	}
	return st, nil
}

// publish is fire-and-forget: the DB committed, an event hiccup must not
// fail the request.
func (s *service) publish(ctx context.Context, topic, eventType, orderID string, payload any) {
	if s.producer == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.name,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.producer.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *service) cacheStatus(ctx context.Context, o *Order) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	val := kafkax.MustMarshal(struct {
		Status     Status    `json:"status"`
		OccurredAt time.Time `json:"occurred_at"`
	}{o.Status, time.Now().UTC()})
	_ = s.cache.Set(ctx, key, val, redisx.TTLStatusCache).Err()
}

func (s *service) invalidateStats(ctx context.Context, o *Order) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx,
		fmt.Sprintf(redisx.KeyOrderStats, RoleBuyer, o.BuyerID),
		fmt.Sprintf(redisx.KeyOrderStats, RoleSeller, o.SellerID),
	).Err()
}
