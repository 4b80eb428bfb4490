package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebeiconnect/marketplace/internal/auth"
	"github.com/sebeiconnect/marketplace/internal/orders"
)

// stubOrders implements orders.Service with per-method function fields.
type stubOrders struct {
	create     func(ctx context.Context, in orders.CreateOrderInput) (*orders.Order, error)
	get        func(ctx context.Context, orderID, actorID string) (*orders.Order, error)
	list       func(ctx context.Context, p orders.ListParams) ([]orders.Order, int64, error)
	transition func(ctx context.Context, orderID, actorID string, to orders.Status, trackingCode string) (*orders.Order, error)
	cancel     func(ctx context.Context, orderID, actorID, reason string) (*orders.Order, error)
	stats      func(ctx context.Context, userID string, role orders.Role) (*orders.Stats, error)
}

func (s *stubOrders) CreateOrder(ctx context.Context, in orders.CreateOrderInput) (*orders.Order, error) {
	return s.create(ctx, in)
}

func (s *stubOrders) GetOrder(ctx context.Context, orderID, actorID string) (*orders.Order, error) {
	return s.get(ctx, orderID, actorID)
}

func (s *stubOrders) ListOrders(ctx context.Context, p orders.ListParams) ([]orders.Order, int64, error) {
	return s.list(ctx, p)
}

func (s *stubOrders) TransitionStatus(ctx context.Context, orderID, actorID string, to orders.Status, trackingCode string) (*orders.Order, error) {
	return s.transition(ctx, orderID, actorID, to, trackingCode)
}

func (s *stubOrders) CancelOrder(ctx context.Context, orderID, actorID, reason string) (*orders.Order, error) {
	return s.cancel(ctx, orderID, actorID, reason)
}

func (s *stubOrders) Stats(ctx context.Context, userID string, role orders.Role) (*orders.Stats, error) {
	return s.stats(ctx, userID, role)
}

func newOrdersRouter(t *testing.T, svc orders.Service) (http.Handler, string) {
	t.Helper()
	tokens := auth.NewManager("test-secret", time.Hour)
	token, err := tokens.Issue("buyer-1", "buyer")
	require.NoError(t, err)

	r := chi.NewRouter()
	h := &OrdersHandler{Orders: svc, Tokens: tokens}
	h.Register(r)
	return r, token
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	listingID := uuid.NewString()
	svc := &stubOrders{
		create: func(_ context.Context, in orders.CreateOrderInput) (*orders.Order, error) {
			assert.Equal(t, "buyer-1", in.BuyerID)
			assert.Equal(t, listingID, in.ListingID)
			assert.True(t, in.Quantity.Equal(decimal.NewFromInt(5)))
			return &orders.Order{ID: "o1", BuyerID: in.BuyerID, Status: orders.StatusPending}, nil
		},
	}
	h, token := newOrdersRouter(t, svc)

	rec := doJSON(t, h, http.MethodPost, "/orders", token,
		`{"listing_id":"`+listingID+`","quantity":"5"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending"`)
}

func TestCreateOrderEndpointErrors(t *testing.T) {
	listingID := uuid.NewString()
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"insufficient inventory", orders.ErrInsufficientInventory, http.StatusConflict},
		{"listing not found", orders.ErrListingNotFound, http.StatusNotFound},
		{"store unavailable", orders.ErrStoreUnavailable, http.StatusServiceUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrders{
				create: func(context.Context, orders.CreateOrderInput) (*orders.Order, error) {
					return nil, tc.err
				},
			}
			h, token := newOrdersRouter(t, svc)
			rec := doJSON(t, h, http.MethodPost, "/orders", token,
				`{"listing_id":"`+listingID+`","quantity":"2"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateOrderEndpointBadRequests(t *testing.T) {
	svc := &stubOrders{
		create: func(context.Context, orders.CreateOrderInput) (*orders.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h, token := newOrdersRouter(t, svc)

	rec := doJSON(t, h, http.MethodPost, "/orders", token, `{"listing_id":"not-a-uuid","quantity":"2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/orders", token,
		`{"listing_id":"`+uuid.NewString()+`","quantity":"-2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/orders", token, `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersEndpointsRequireToken(t *testing.T) {
	svc := &stubOrders{}
	h, _ := newOrdersRouter(t, svc)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders"},
		{http.MethodGet, "/orders/o1"},
		{http.MethodPatch, "/orders/o1/status"},
		{http.MethodPost, "/orders/o1/cancel"},
		{http.MethodGet, "/orders/stats"},
	} {
		rec := doJSON(t, h, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := doJSON(t, h, http.MethodGet, "/orders", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	svc := &stubOrders{
		transition: func(_ context.Context, orderID, actorID string, to orders.Status, trackingCode string) (*orders.Order, error) {
			assert.Equal(t, "o1", orderID)
			assert.Equal(t, "buyer-1", actorID)
			assert.Equal(t, orders.StatusConfirmed, to)
			assert.Equal(t, "TRK-9", trackingCode)
			return &orders.Order{ID: orderID, Status: to, TrackingCode: trackingCode}, nil
		},
	}
	h, token := newOrdersRouter(t, svc)

	rec := doJSON(t, h, http.MethodPatch, "/orders/o1/status", token,
		`{"status":"confirmed","tracking_code":"TRK-9"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/orders/o1/status", token, `{"status":"teleported"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusEndpointErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", orders.ErrInvalidTransition, http.StatusConflict},
		{"not a party", orders.ErrForbidden, http.StatusForbidden},
		{"order not found", orders.ErrOrderNotFound, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrders{
				transition: func(context.Context, string, string, orders.Status, string) (*orders.Order, error) {
					return nil, tc.err
				},
			}
			h, token := newOrdersRouter(t, svc)
			rec := doJSON(t, h, http.MethodPatch, "/orders/o1/status", token, `{"status":"confirmed"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCancelEndpointAllowsEmptyBody(t *testing.T) {
	var gotReason string
	svc := &stubOrders{
		cancel: func(_ context.Context, orderID, actorID, reason string) (*orders.Order, error) {
			gotReason = reason
			return &orders.Order{ID: orderID, Status: orders.StatusCancelled, CancellationReason: reason}, nil
		},
	}
	h, token := newOrdersRouter(t, svc)

	rec := doJSON(t, h, http.MethodPost, "/orders/o1/cancel", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gotReason)

	rec = doJSON(t, h, http.MethodPost, "/orders/o1/cancel", token, `{"reason":"truck broke down"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "truck broke down", gotReason)
}

func TestListOrdersEndpoint(t *testing.T) {
	svc := &stubOrders{
		list: func(_ context.Context, p orders.ListParams) ([]orders.Order, int64, error) {
			assert.Equal(t, "buyer-1", p.UserID)
			assert.Equal(t, orders.RoleSeller, p.Role)
			assert.Equal(t, orders.StatusPending, p.Status)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 5, p.PageSize)
			return []orders.Order{{ID: "o1"}}, 11, nil
		},
	}
	h, token := newOrdersRouter(t, svc)

	rec := doJSON(t, h, http.MethodGet, "/orders?role=seller&status=pending&page=2&limit=5", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":11`)

	rec = doJSON(t, h, http.MethodGet, "/orders?status=bogus", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	svc := &stubOrders{
		stats: func(_ context.Context, userID string, role orders.Role) (*orders.Stats, error) {
			assert.Equal(t, "buyer-1", userID)
			assert.Equal(t, orders.RoleBuyer, role)
			return &orders.Stats{TotalOrders: 3, TotalEarnings: decimal.Zero}, nil
		},
	}
	h, token := newOrdersRouter(t, svc)

	rec := doJSON(t, h, http.MethodGet, "/orders/stats", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_orders":3`)
}
