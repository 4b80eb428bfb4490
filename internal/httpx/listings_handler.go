package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sebeiconnect/marketplace/internal/auth"
	"github.com/sebeiconnect/marketplace/internal/listings"
)

type ListingsHandler struct {
	Listings listings.Service
	Tokens   *auth.Manager
}

type createListingReq struct {
	CropName    string          `json:"crop_name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required,max=64"`
	Description string          `json:"description"`
	Unit        string          `json:"unit" validate:"omitempty,max=32"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity_available" validate:"required"`
	Location    string          `json:"location" validate:"omitempty,max=255"`
	HarvestDate *time.Time      `json:"harvest_date"`
	Organic     bool            `json:"organic"`
	Grade       string          `json:"quality_grade" validate:"omitempty,max=32"`
}

type updateListingReq struct {
	CropName    *string          `json:"crop_name" validate:"omitempty,max=255"`
	Category    *string          `json:"category" validate:"omitempty,max=64"`
	Description *string          `json:"description"`
	Unit        *string          `json:"unit" validate:"omitempty,max=32"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Location    *string          `json:"location" validate:"omitempty,max=255"`
	Organic     *bool            `json:"organic"`
	Grade       *string          `json:"quality_grade" validate:"omitempty,max=32"`
}

type listingsPage struct {
	Listings []listings.Listing `json:"listings"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Total    int64              `json:"total"`
}

func (h *ListingsHandler) Register(r chi.Router) {
	r.Get("/listings", h.search)
	r.Get("/listings/categories", h.categories)
	r.Get("/listings/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.Tokens))
		r.Post("/listings", h.create)
		r.Put("/listings/{id}", h.update)
		r.Delete("/listings/{id}", h.delete)
		r.Get("/seller/listings", h.sellerListings)
	})
}

func (h *ListingsHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := listings.SearchParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Page:     intQuery(q.Get("page"), 1),
		PageSize: intQuery(q.Get("limit"), 20),
	}
	if v := q.Get("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			p.MinPrice = &d
		}
	}
	if v := q.Get("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			p.MaxPrice = &d
		}
	}

	out, total, err := h.Listings.Search(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingsPage{Listings: out, Page: p.Page, PageSize: p.PageSize, Total: total})
}

func (h *ListingsHandler) get(w http.ResponseWriter, r *http.Request) {
	l, err := h.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingsHandler) categories(w http.ResponseWriter, r *http.Request) {
	out, err := h.Listings.Categories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ListingsHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	var req createListingReq
	if !decodeValid(w, r, &req) {
		return
	}
	if !req.UnitPrice.IsPositive() || req.Quantity.IsNegative() {
		writeError(w, http.StatusBadRequest, "unit_price must be positive and quantity_available non-negative")
		return
	}

	l, err := h.Listings.Create(r.Context(), listings.CreateInput{
		SellerID:    claims.UserID,
		CropName:    req.CropName,
		Category:    req.Category,
		Description: req.Description,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
		Location:    req.Location,
		HarvestDate: req.HarvestDate,
		Organic:     req.Organic,
		Grade:       req.Grade,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListingsHandler) update(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	var req updateListingReq
	if !decodeValid(w, r, &req) {
		return
	}
	if req.UnitPrice != nil && !req.UnitPrice.IsPositive() {
		writeError(w, http.StatusBadRequest, "unit_price must be positive")
		return
	}

	l, err := h.Listings.Update(r.Context(), chi.URLParam(r, "id"), claims.UserID, listings.Update{
		CropName:    req.CropName,
		Category:    req.Category,
		Description: req.Description,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		Location:    req.Location,
		Organic:     req.Organic,
		Grade:       req.Grade,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingsHandler) delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	if err := h.Listings.Delete(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

func (h *ListingsHandler) sellerListings(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	out, err := h.Listings.SellerListings(r.Context(), claims.UserID, r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
