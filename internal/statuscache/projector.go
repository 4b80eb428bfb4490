package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sebeiconnect/marketplace/internal/kafka"
	"github.com/sebeiconnect/marketplace/internal/logger"
	"github.com/sebeiconnect/marketplace/internal/orders"
	"github.com/sebeiconnect/marketplace/internal/redisx"
)

const consumerName = "statuscache"

// cachedStatus is the read-model value. OccurredAt orders writes across
// topics: the three order topics only guarantee per-order ordering within
// a topic, so a late order.created must not clobber a newer status.
type cachedStatus struct {
	Status     orders.Status `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// newerThanCached reports whether an event at occurredAt should replace the
// raw cached value. Unparseable cache entries are always replaced.
func newerThanCached(raw []byte, occurredAt time.Time) bool {
	var cur cachedStatus
	if err := json.Unmarshal(raw, &cur); err != nil {
		return true
	}
	return !occurredAt.Before(cur.OccurredAt)
}

// Projector consumes order lifecycle events and keeps the Redis order
// status read model warm, so status polls stay off the database even when
// the API instance that handled the mutation is gone.
type Projector struct {
	Redis *redis.Client
	Log   logger.Logger
}

// HandleEvent is installed as the consumer handler for every order topic.
func (p *Projector) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		p.Log.Warnf("drop undecodable event on %s: %v", m.Topic, err)
		return nil // poison message, do not block the partition
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, consumerName, env.EventID)
	if exists, _ := redisx.Exists(ctx, p.Redis, dkey); exists {
		return nil
	}

	var orderID string
	var status orders.Status
	switch env.EventType {
	case orders.EventOrderCreated:
		payload, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		orderID, status = payload.OrderID, orders.StatusPending
	case orders.EventOrderStatusUpdated:
		payload, err := kafkax.UnwrapPayload[orders.OrderStatusUpdatedPayload](env.Payload)
		if err != nil {
			return err
		}
		orderID, status = payload.OrderID, payload.To
	case orders.EventOrderCancelled:
		payload, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		orderID, status = payload.OrderID, orders.StatusCancelled
	default:
		return nil // not ours
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if raw, err := p.Redis.Get(ctx, key).Bytes(); err == nil && !newerThanCached(raw, env.OccurredAt) {
		_ = p.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
		return nil
	}
	val := kafkax.MustMarshal(cachedStatus{Status: status, OccurredAt: env.OccurredAt})
	if err := p.Redis.Set(ctx, key, val, redisx.TTLStatusCache).Err(); err != nil {
		return fmt.Errorf("set status cache: %w", err)
	}
	_ = p.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p.Log.Debugf("order %s status cached as %s (event %s)", orderID, status, env.EventID)
	return nil
}
