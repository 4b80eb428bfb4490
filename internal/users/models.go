package users

import "time"

const (
	TypeFarmer      = "farmer"
	TypeBuyer       = "buyer"
	TypeTransporter = "transporter"
)

type User struct {
	ID           string    `json:"id"`
	PhoneNumber  string    `json:"phone_number"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	UserType     string    `json:"user_type"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	District     string    `json:"district,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterInput struct {
	PhoneNumber string
	Name        string
	Email       string
	UserType    string
	Password    string
	District    string
}

// ProfileUpdate carries optional fields; nil means keep the current value.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	District *string
}
