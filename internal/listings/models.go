package listings

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusAvailable = "available"
	StatusSoldOut   = "sold_out"
	StatusDeleted   = "deleted"
)

// Listing is the sellable unit orders are placed against. quantity_available
// is mutated only by order creation and cancellation.
type Listing struct {
	ID                string          `json:"id"`
	SellerID          string          `json:"seller_id"`
	CropName          string          `json:"crop_name"`
	Category          string          `json:"category"`
	Description       string          `json:"description,omitempty"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	Location          string          `json:"location,omitempty"`
	HarvestDate       *time.Time      `json:"harvest_date,omitempty"`
	Organic           bool            `json:"organic"`
	QualityGrade      string          `json:"quality_grade"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type CreateInput struct {
	SellerID    string
	CropName    string
	Category    string
	Description string
	Unit        string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Location    string
	HarvestDate *time.Time
	Organic     bool
	Grade       string
}

// Update carries optional fields; nil means keep the current value.
type Update struct {
	CropName    *string
	Category    *string
	Description *string
	Unit        *string
	UnitPrice   *decimal.Decimal
	Location    *string
	Organic     *bool
	Grade       *string
}

type SearchParams struct {
	Search   string
	Category string
	Location string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	PageSize int
}

// SellerListing is a listing with order aggregates for the seller dashboard.
type SellerListing struct {
	Listing
	OrderCount    int64           `json:"order_count"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
