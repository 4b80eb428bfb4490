package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const listingColumns = `id, seller_id, crop_name, category, COALESCE(description, ''),
	unit, unit_price, quantity_available, COALESCE(location, ''), harvest_date,
	organic, quality_grade, status, created_at, updated_at`

func scanListing(row pgx.Row) (*Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.CropName, &l.Category, &l.Description,
		&l.Unit, &l.UnitPrice, &l.QuantityAvailable, &l.Location, &l.HarvestDate,
		&l.Organic, &l.QualityGrade, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return &l, nil
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Listing, error) {
	unit := in.Unit
	if unit == "" {
		unit = "kg"
	}
	grade := in.Grade
	if grade == "" {
		grade = "standard"
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO listings (id, seller_id, crop_name, category, description, unit,
			unit_price, quantity_available, location, harvest_date, organic, quality_grade, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10, $11, $12, 'available')
		RETURNING `+listingColumns,
		uuid.NewString(), in.SellerID, in.CropName, in.Category, in.Description, unit,
		in.UnitPrice, in.Quantity, in.Location, in.HarvestDate, in.Organic, grade)
	return scanListing(row)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Listing, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

// Search returns available listings matching the filters, newest first,
// together with the total match count for pagination.
func (r *Repo) Search(ctx context.Context, p SearchParams) ([]Listing, int64, error) {
	where := []string{"status = 'available'"}
	args := []any{}
	idx := 1

	if p.Search != "" {
		where = append(where, fmt.Sprintf("(crop_name ILIKE $%d OR COALESCE(location, '') ILIKE $%d)", idx, idx))
		args = append(args, "%"+p.Search+"%")
		idx++
	}
	if p.Category != "" && p.Category != "all" {
		where = append(where, fmt.Sprintf("category = $%d", idx))
		args = append(args, p.Category)
		idx++
	}
	if p.Location != "" {
		where = append(where, fmt.Sprintf("COALESCE(location, '') ILIKE $%d", idx))
		args = append(args, "%"+p.Location+"%")
		idx++
	}
	if p.MinPrice != nil {
		where = append(where, fmt.Sprintf("unit_price >= $%d", idx))
		args = append(args, *p.MinPrice)
		idx++
	}
	if p.MaxPrice != nil {
		where = append(where, fmt.Sprintf("unit_price <= $%d", idx))
		args = append(args, *p.MaxPrice)
		idx++
	}
	clause := strings.Join(where, " AND ")

	var total int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE `+clause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		listingColumns, clause, idx, idx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, upd Update) (*Listing, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	idx := 1

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}
	if upd.CropName != nil {
		add("crop_name", *upd.CropName)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Unit != nil {
		add("unit", *upd.Unit)
	}
	if upd.UnitPrice != nil {
		add("unit_price", *upd.UnitPrice)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Organic != nil {
		add("organic", *upd.Organic)
	}
	if upd.Grade != nil {
		add("quality_grade", *upd.Grade)
	}

	query := fmt.Sprintf(`UPDATE listings SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), idx, listingColumns)
	args = append(args, id)
	return scanListing(r.DB.QueryRow(ctx, query, args...))
}

// SoftDelete marks the listing deleted; orders already referencing it keep
// working and a later cancellation still restores its quantity.
func (r *Repo) SoftDelete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE listings SET status = 'deleted', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ListBySeller(ctx context.Context, sellerID, status string) ([]SellerListing, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT l.id, l.seller_id, l.crop_name, l.category, COALESCE(l.description, ''),
			l.unit, l.unit_price, l.quantity_available, COALESCE(l.location, ''), l.harvest_date,
			l.organic, l.quality_grade, l.status, l.created_at, l.updated_at,
			COUNT(o.id),
			COALESCE(SUM(CASE WHEN o.status = 'completed' THEN o.total_amount ELSE 0 END), 0)
		FROM listings l
		LEFT JOIN orders o ON o.listing_id = l.id
		WHERE l.seller_id = $1 AND l.status = $2
		GROUP BY l.id
		ORDER BY l.created_at DESC`, sellerID, status)
	if err != nil {
		return nil, fmt.Errorf("seller listings: %w", err)
	}
	defer rows.Close()

	var out []SellerListing
	for rows.Next() {
		var s SellerListing
		err := rows.Scan(&s.ID, &s.SellerID, &s.CropName, &s.Category, &s.Description,
			&s.Unit, &s.UnitPrice, &s.QuantityAvailable, &s.Location, &s.HarvestDate,
			&s.Organic, &s.QualityGrade, &s.Status, &s.CreatedAt, &s.UpdatedAt,
			&s.OrderCount, &s.TotalEarnings)
		if err != nil {
			return nil, fmt.Errorf("scan seller listing: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT category, COUNT(*) FROM listings
		WHERE status = 'available'
		GROUP BY category
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
