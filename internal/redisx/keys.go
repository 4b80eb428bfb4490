package redisx

import "time"

const (
	// Order status read model: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Per-user order stats: order_stats:{role}:{user_id} -> stats JSON
	KeyOrderStats = "order_stats:%s:%s"

	// Listing detail cache: listing:{listing_id} -> listing JSON
	KeyListing = "listing:%s"

	// Dedup for event consumers: dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLStatsCache  = 2 * time.Minute
	TTLListing     = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
