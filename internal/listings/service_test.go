package listings

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebeiconnect/marketplace/internal/logger"
)

type memListings struct {
	mu   sync.Mutex
	rows map[string]*Listing
}

func newMemListings() *memListings {
	return &memListings{rows: make(map[string]*Listing)}
}

func (m *memListings) Create(_ context.Context, in CreateInput) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	l := &Listing{
		ID:                uuid.NewString(),
		SellerID:          in.SellerID,
		CropName:          in.CropName,
		Category:          in.Category,
		Description:       in.Description,
		Unit:              in.Unit,
		UnitPrice:         in.UnitPrice,
		QuantityAvailable: in.Quantity,
		Location:          in.Location,
		HarvestDate:       in.HarvestDate,
		Organic:           in.Organic,
		QualityGrade:      in.Grade,
		Status:            StatusAvailable,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.rows[l.ID] = l
	cp := *l
	return &cp, nil
}

func (m *memListings) GetByID(_ context.Context, id string) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || l.Status == StatusDeleted {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListings) Search(_ context.Context, p SearchParams) ([]Listing, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Listing
	for _, l := range m.rows {
		if l.Status != StatusAvailable {
			continue
		}
		if p.Category != "" && l.Category != p.Category {
			continue
		}
		if p.Search != "" && !strings.Contains(strings.ToLower(l.CropName), strings.ToLower(p.Search)) {
			continue
		}
		if p.MinPrice != nil && l.UnitPrice.LessThan(*p.MinPrice) {
			continue
		}
		if p.MaxPrice != nil && l.UnitPrice.GreaterThan(*p.MaxPrice) {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (m *memListings) Update(_ context.Context, id string, upd Update) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.CropName != nil {
		l.CropName = *upd.CropName
	}
	if upd.UnitPrice != nil {
		l.UnitPrice = *upd.UnitPrice
	}
	if upd.Location != nil {
		l.Location = *upd.Location
	}
	l.UpdatedAt = time.Now()
	cp := *l
	return &cp, nil
}

func (m *memListings) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = StatusDeleted
	return nil
}

func (m *memListings) ListBySeller(_ context.Context, sellerID, status string) ([]SellerListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SellerListing
	for _, l := range m.rows {
		if l.SellerID != sellerID || l.Status != status {
			continue
		}
		out = append(out, SellerListing{Listing: *l, TotalEarnings: decimal.Zero})
	}
	return out, nil
}

func (m *memListings) Categories(_ context.Context) ([]CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, l := range m.rows {
		if l.Status == StatusAvailable {
			counts[l.Category]++
		}
	}
	var out []CategoryCount
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newListingsService(store Store) Service {
	return NewService(store, nil, logger.NewNop())
}

func seed(t *testing.T, svc Service, sellerID, crop, category, price, qty string) *Listing {
	t.Helper()
	l, err := svc.Create(context.Background(), CreateInput{
		SellerID:  sellerID,
		CropName:  crop,
		Category:  category,
		Unit:      "kg",
		UnitPrice: dec(price),
		Quantity:  dec(qty),
		Grade:     "A",
	})
	require.NoError(t, err)
	return l
}

func TestCreateAndGetListing(t *testing.T) {
	svc := newListingsService(newMemListings())

	l := seed(t, svc, "seller-1", "Maize", "grains", "1800", "500")
	assert.Equal(t, StatusAvailable, l.Status)
	assert.True(t, l.QuantityAvailable.Equal(dec("500")))

	got, err := svc.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maize", got.CropName)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchFilters(t *testing.T) {
	svc := newListingsService(newMemListings())
	seed(t, svc, "seller-1", "Maize", "grains", "1800", "500")
	seed(t, svc, "seller-1", "Beans", "legumes", "4200", "120")
	seed(t, svc, "seller-2", "Sweet Maize", "grains", "2500", "80")

	out, total, err := svc.Search(context.Background(), SearchParams{Category: "grains"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, out, 2)

	min := dec("2000")
	out, _, err = svc.Search(context.Background(), SearchParams{Search: "maize", MinPrice: &min})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Sweet Maize", out[0].CropName)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc := newListingsService(newMemListings())
	l := seed(t, svc, "seller-1", "Maize", "grains", "1800", "500")

	price := dec("2000")
	updated, err := svc.Update(context.Background(), l.ID, "seller-1", Update{UnitPrice: &price})
	require.NoError(t, err)
	assert.True(t, updated.UnitPrice.Equal(price))
	assert.Equal(t, "Maize", updated.CropName, "unset fields keep their value")

	_, err = svc.Update(context.Background(), l.ID, "seller-2", Update{UnitPrice: &price})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(context.Background(), "missing", "seller-1", Update{UnitPrice: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsSoftAndOwnerOnly(t *testing.T) {
	svc := newListingsService(newMemListings())
	l := seed(t, svc, "seller-1", "Maize", "grains", "1800", "500")

	err := svc.Delete(context.Background(), l.ID, "seller-2")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), l.ID, "seller-1"))

	_, err = svc.Get(context.Background(), l.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err := svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "deleted listings never appear in search")
}

func TestSellerListingsDefaultsToAvailable(t *testing.T) {
	store := newMemListings()
	svc := newListingsService(store)
	seed(t, svc, "seller-1", "Maize", "grains", "1800", "500")
	sold := seed(t, svc, "seller-1", "Beans", "legumes", "4200", "120")

	store.mu.Lock()
	store.rows[sold.ID].Status = StatusSoldOut
	store.mu.Unlock()

	out, err := svc.SellerListings(context.Background(), "seller-1", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Maize", out[0].CropName)

	out, err = svc.SellerListings(context.Background(), "seller-1", StatusSoldOut)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Beans", out[0].CropName)
}

func TestCategories(t *testing.T) {
	svc := newListingsService(newMemListings())
	seed(t, svc, "seller-1", "Maize", "grains", "1800", "500")
	seed(t, svc, "seller-2", "Millet", "grains", "3000", "60")
	seed(t, svc, "seller-1", "Beans", "legumes", "4200", "120")

	out, err := svc.Categories(context.Background())
	require.NoError(t, err)
	counts := make(map[string]int64)
	for _, c := range out {
		counts[c.Category] = c.Count
	}
	assert.Equal(t, int64(2), counts["grains"])
	assert.Equal(t, int64(1), counts["legumes"])
}
