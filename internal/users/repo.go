package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, phone_number, name, COALESCE(email, ''), user_type,
	COALESCE(password_hash, ''), is_verified, is_active, COALESCE(district, ''),
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.Name, &u.Email, &u.UserType,
		&u.PasswordHash, &u.IsVerified, &u.IsActive, &u.District,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user inside a tx so the duplicate-phone check and the
// insert cannot interleave with a concurrent registration.
func (r *Repo) Create(ctx context.Context, in RegisterInput, passwordHash string) (*User, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing string
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE phone_number = $1`, in.PhoneNumber).Scan(&existing)
	if err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO users (id, phone_number, name, email, user_type, password_hash, district, is_verified)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), TRUE)
		RETURNING `+userColumns,
		uuid.NewString(), in.PhoneNumber, in.Name, in.Email, in.UserType, passwordHash, in.District)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

func (r *Repo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	return scanUser(row)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *Repo) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($1, name),
			email = COALESCE($2, email),
			district = COALESCE($3, district),
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+userColumns,
		upd.Name, upd.Email, upd.District, id)
	return scanUser(row)
}
