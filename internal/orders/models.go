package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role scopes reads to the side of the order the user is on.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Order is a buyer's reservation of a quantity from a listing. quantity,
// unit_price and total_amount are fixed at creation; only status,
// tracking_code and the terminal timestamps mutate afterwards.
type Order struct {
	ID                 string          `json:"id"`
	OrderNumber        string          `json:"order_number"`
	BuyerID            string          `json:"buyer_id"`
	SellerID           string          `json:"seller_id"`
	ListingID          string          `json:"listing_id"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Status             Status          `json:"status"`
	DeliveryAddress    string          `json:"delivery_address,omitempty"`
	DeliveryDate       *time.Time      `json:"delivery_date,omitempty"`
	Message            string          `json:"message,omitempty"`
	TrackingCode       string          `json:"tracking_code,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
}

// Party reports whether userID is the buyer or the seller of the order.
func (o *Order) Party(userID string) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

type CreateOrderInput struct {
	BuyerID         string
	ListingID       string
	Quantity        decimal.Decimal
	DeliveryAddress string
	DeliveryDate    *time.Time
	Message         string
}

type ListParams struct {
	UserID   string
	Role     Role
	Status   Status
	Page     int
	PageSize int
}

// Stats aggregates a user's orders by status bucket. Active covers
// confirmed, processing and in_transit. TotalEarnings sums total_amount of
// completed orders only.
type Stats struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	ActiveOrders    int64           `json:"active_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
}
