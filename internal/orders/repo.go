package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo implements Store on Postgres. Each mutating method runs in a single
// transaction with the relevant rows locked FOR UPDATE, so two concurrent
// creations against the same listing serialize on the listing row and can
// never both pass the availability check.
type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_number, buyer_id, seller_id, listing_id, quantity,
	unit_price, total_amount, status, COALESCE(delivery_address, ''), delivery_date,
	COALESCE(message, ''), COALESCE(tracking_code, ''), COALESCE(cancellation_reason, ''),
	created_at, updated_at, delivered_at, cancelled_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.SellerID, &o.ListingID,
		&o.Quantity, &o.UnitPrice, &o.TotalAmount, &o.Status, &o.DeliveryAddress,
		&o.DeliveryDate, &o.Message, &o.TrackingCode, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt, &o.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, storeErr("scan order", err)
	}
	return &o, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func (r *Repo) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the listing row; availability check and decrement must not
	// interleave with a concurrent order.
	var sellerID string
	var unitPrice, available decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT seller_id, unit_price, quantity_available
		FROM listings
		WHERE id = $1 AND status = 'available'
		FOR UPDATE`, in.ListingID).Scan(&sellerID, &unitPrice, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, storeErr("lock listing", err)
	}

	if in.Quantity.GreaterThan(available) {
		return nil, fmt.Errorf("%w: requested %s, available %s",
			ErrInsufficientInventory, in.Quantity, available)
	}

	total := unitPrice.Mul(in.Quantity)
	row := tx.QueryRow(ctx, `
		INSERT INTO orders (id, order_number, buyer_id, seller_id, listing_id, quantity,
			unit_price, total_amount, status, delivery_address, delivery_date, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', NULLIF($9, ''), $10, NULLIF($11, ''))
		RETURNING `+orderColumns,
		uuid.NewString(), NewOrderNumber(), in.BuyerID, sellerID, in.ListingID,
		in.Quantity, unitPrice, total, in.DeliveryAddress, in.DeliveryDate, in.Message)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	remaining := available.Sub(in.Quantity)
	status := "available"
	if remaining.IsZero() {
		status = "sold_out"
	}
	ct, err := tx.Exec(ctx, `
		UPDATE listings
		SET quantity_available = quantity_available - $1, status = $2, updated_at = NOW()
		WHERE id = $3`, in.Quantity, status, in.ListingID)
	if err != nil {
		return nil, storeErr("reserve quantity", err)
	}
	if ct.RowsAffected() != 1 {
		return nil, storeErr("reserve quantity", errors.New("listing row vanished"))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit", err)
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *Repo) TransitionStatus(ctx context.Context, id string, to Status, trackingCode string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, storeErr("lock order", err)
	}

	// Legality is checked here, inside the row lock, so a concurrent
	// transition committed in between cannot be lost.
	if !CanTransition(current, to) {
		return nil, invalidTransition(current, to)
	}

	sets := []string{"status = $1", "updated_at = NOW()"}
	args := []any{to}
	idx := 2
	if trackingCode != "" {
		sets = append(sets, fmt.Sprintf("tracking_code = $%d", idx))
		args = append(args, trackingCode)
		idx++
	}
	if to == StatusDelivered {
		sets = append(sets, "delivered_at = NOW()")
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), idx, orderColumns)
	o, err := scanOrder(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit", err)
	}
	return o, nil
}

func (r *Repo) CancelOrder(ctx context.Context, id, reason string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, storeErr("lock order", err)
	}
	if !CanCancel(current) {
		return nil, cancelNotAllowed(current)
	}

	row := tx.QueryRow(ctx, `
		UPDATE orders
		SET status = 'cancelled', cancellation_reason = NULLIF($1, ''),
			cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $2
		RETURNING `+orderColumns, reason, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	// Restore the reserved quantity. A sold_out listing becomes available
	// again; a deleted one keeps the quantity but stays deleted.
	_, err = tx.Exec(ctx, `
		UPDATE listings
		SET quantity_available = quantity_available + $1,
			status = CASE WHEN status = 'sold_out' THEN 'available' ELSE status END,
			updated_at = NOW()
		WHERE id = $2`, o.Quantity, o.ListingID)
	if err != nil {
		return nil, storeErr("restore quantity", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit", err)
	}
	return o, nil
}

func (r *Repo) List(ctx context.Context, p ListParams) ([]Order, int64, error) {
	col := "buyer_id"
	if p.Role == RoleSeller {
		col = "seller_id"
	}
	where := col + " = $1"
	args := []any{p.UserID}
	idx := 2
	if p.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, p.Status)
		idx++
	}

	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count orders", err)
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, idx, idx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("list orders", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (r *Repo) Stats(ctx context.Context, userID string, role Role) (*Stats, error) {
	col := "buyer_id"
	if role == RoleSeller {
		col = "seller_id"
	}
	var st Stats
	err := r.DB.QueryRow(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status IN ('confirmed', 'processing', 'in_transit')),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed'), 0)
		FROM orders
		WHERE %s = $1`, col), userID).
		Scan(&st.TotalOrders, &st.PendingOrders, &st.ActiveOrders,
			&st.CompletedOrders, &st.CancelledOrders, &st.TotalEarnings)
	if err != nil {
		return nil, storeErr("order stats", err)
	}
	return &st, nil
}
