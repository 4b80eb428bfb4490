package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sebeiconnect/marketplace/internal/auth"
	"github.com/sebeiconnect/marketplace/internal/orders"
)

type OrdersHandler struct {
	Orders orders.Service
	Tokens *auth.Manager
}

type createOrderReq struct {
	ListingID       string          `json:"listing_id" validate:"required,uuid4"`
	Quantity        decimal.Decimal `json:"quantity" validate:"required"`
	DeliveryAddress string          `json:"delivery_address" validate:"omitempty,max=1024"`
	DeliveryDate    *time.Time      `json:"delivery_date"`
	Message         string          `json:"message" validate:"omitempty,max=1024"`
}

type updateStatusReq struct {
	Status       string `json:"status" validate:"required"`
	TrackingCode string `json:"tracking_code" validate:"omitempty,max=128"`
}

type cancelOrderReq struct {
	Reason string `json:"reason" validate:"omitempty,max=1024"`
}

type ordersPage struct {
	Orders   []orders.Order `json:"orders"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int64          `json:"total"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.Tokens))
		r.Post("/orders", h.create)
		r.Get("/orders", h.list)
		r.Get("/orders/stats", h.stats)
		r.Get("/orders/{id}", h.get)
		r.Patch("/orders/{id}/status", h.updateStatus)
		r.Post("/orders/{id}/cancel", h.cancel)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	var req createOrderReq
	if !decodeValid(w, r, &req) {
		return
	}
	if !req.Quantity.IsPositive() {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	o, err := h.Orders.CreateOrder(r.Context(), orders.CreateOrderInput{
		BuyerID:         claims.UserID,
		ListingID:       req.ListingID,
		Quantity:        req.Quantity,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		Message:         req.Message,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	o, err := h.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	q := r.URL.Query()

	p := orders.ListParams{
		UserID:   claims.UserID,
		Role:     parseRole(q.Get("role")),
		Page:     intQuery(q.Get("page"), 1),
		PageSize: intQuery(q.Get("limit"), 20),
	}
	if v := q.Get("status"); v != "" {
		st, err := orders.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Status = st
	}

	out, total, err := h.Orders.ListOrders(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ordersPage{Orders: out, Page: p.Page, PageSize: p.PageSize, Total: total})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	var req updateStatusReq
	if !decodeValid(w, r, &req) {
		return
	}
	to, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.Orders.TransitionStatus(r.Context(), chi.URLParam(r, "id"), claims.UserID, to, req.TrackingCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	// reason is optional; an empty body is fine
	var req cancelOrderReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	o, err := h.Orders.CancelOrder(r.Context(), chi.URLParam(r, "id"), claims.UserID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	st, err := h.Orders.Stats(r.Context(), claims.UserID, parseRole(r.URL.Query().Get("role")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func parseRole(s string) orders.Role {
	if s == string(orders.RoleSeller) {
		return orders.RoleSeller
	}
	return orders.RoleBuyer
}
