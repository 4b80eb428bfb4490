package orders

import "context"

// Store is the persistence and inventory boundary of the lifecycle manager.
//
// Every mutating method is one atomic unit: CreateOrder inserts the order
// and decrements the listing quantity together or not at all;
// TransitionStatus re-validates legality against the current row state;
// CancelOrder flips the status and restores the listing quantity together.
// Implementations must never leave a partial mutation behind on error.
type Store interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	TransitionStatus(ctx context.Context, id string, to Status, trackingCode string) (*Order, error)
	CancelOrder(ctx context.Context, id, reason string) (*Order, error)
	List(ctx context.Context, p ListParams) ([]Order, int64, error)
	Stats(ctx context.Context, userID string, role Role) (*Stats, error)
}
