package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sebeiconnect/marketplace/internal/auth"
	"github.com/sebeiconnect/marketplace/internal/users"
)

type AuthHandler struct {
	Users  users.Service
	Tokens *auth.Manager
}

type registerReq struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=7,max=32"`
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	UserType    string `json:"user_type" validate:"required,oneof=farmer buyer transporter"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	District    string `json:"district" validate:"omitempty,max=255"`
}

type loginReq struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type updateProfileReq struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	District *string `json:"district" validate:"omitempty,max=255"`
}

type authResp struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.Tokens))
		r.Get("/auth/profile", h.profile)
		r.Put("/auth/profile", h.updateProfile)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decodeValid(w, r, &req) {
		return
	}

	u, token, err := h.Users.Register(r.Context(), users.RegisterInput{
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
		Email:       req.Email,
		UserType:    req.UserType,
		Password:    req.Password,
		District:    req.District,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResp{User: u, Token: token})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decodeValid(w, r, &req) {
		return
	}

	u, token, err := h.Users.Login(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResp{User: u, Token: token})
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	u, err := h.Users.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.FromContext(r.Context())
	var req updateProfileReq
	if !decodeValid(w, r, &req) {
		return
	}

	u, err := h.Users.UpdateProfile(r.Context(), claims.UserID, users.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		District: req.District,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
