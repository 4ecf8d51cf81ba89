package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shopapi/internal/domain"
)

// CartRepo methods take the querier explicitly so the cart service can run a
// whole read-check-write sequence inside one transaction (see Atomic).
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Atomic runs fn in a single transaction.
func (r *CartRepo) Atomic(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithTx(ctx, r.db, fn)
}

// Product reads the product row through q so stock checks see the same
// snapshot as the write that follows.
func (r *CartRepo) Product(ctx context.Context, q sqlx.QueryerContext, productID int64) (domain.Product, error) {
	return getProduct(ctx, q, productID)
}

// CartID returns the user's cart id, or domain.ErrNotFound.
func (r *CartRepo) CartID(ctx context.Context, q sqlx.QueryerContext, userID int64) (int64, error) {
	var id int64
	if err := sqlx.GetContext(ctx, q, &id, `SELECT id FROM carts WHERE user_id = ?`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("cart for user %d: %w", userID, domain.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

// EnsureCart returns the user's cart id, creating the cart on first use.
func (r *CartRepo) EnsureCart(ctx context.Context, q sqlx.ExtContext, userID int64) (int64, error) {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO carts(user_id, updated_at) VALUES(?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO NOTHING
	`, userID); err != nil {
		return 0, err
	}
	return r.CartID(ctx, q, userID)
}

// Quantity returns the quantity of productID in the cart, or domain.ErrNotFound.
func (r *CartRepo) Quantity(ctx context.Context, q sqlx.QueryerContext, cartID, productID int64) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, q, &qty, `
		SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?
	`, cartID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("product %d not in cart: %w", productID, domain.ErrNotFound)
		}
		return 0, err
	}
	return qty, nil
}

// AddQuantity inserts the line or adds qty to the existing one. The write only
// happens while the resulting quantity stays within the product's stock; it
// reports false when the ceiling would be crossed.
func (r *CartRepo) AddQuantity(ctx context.Context, q sqlx.ExecerContext, cartID, productID int64, qty int) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id, product_id, quantity, created_at, updated_at)
		SELECT ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		WHERE ? <= (SELECT stock FROM products WHERE id = ?)
		ON CONFLICT(product_id, cart_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP
		WHERE cart_items.quantity + excluded.quantity <= (SELECT stock FROM products WHERE id = excluded.product_id)
	`, cartID, productID, qty, qty, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// SetQuantity overwrites the line's quantity if it is within stock.
func (r *CartRepo) SetQuantity(ctx context.Context, q sqlx.ExecerContext, cartID, productID int64, qty int) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = ? AND product_id = ?
		  AND ? <= (SELECT stock FROM products WHERE id = ?)
	`, qty, cartID, productID, qty, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CartRepo) RemoveItem(ctx context.Context, q sqlx.ExecerContext, cartID, productID int64) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear deletes every line of the cart in one statement and returns the count.
func (r *CartRepo) Clear(ctx context.Context, q sqlx.ExecerContext, cartID int64) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Lines returns the cart's items joined with current product name and price.
func (r *CartRepo) Lines(ctx context.Context, q sqlx.QueryerContext, cartID int64) ([]domain.CartLine, error) {
	rows := []domain.CartLine{}
	err := sqlx.SelectContext(ctx, q, &rows, `
	  SELECT ci.product_id, p.name, p.price, ci.quantity
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.id
	`, cartID)
	return rows, err
}
