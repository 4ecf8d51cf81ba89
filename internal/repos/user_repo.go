package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopapi/internal/domain"

	"github.com/jmoiron/sqlx"
)

const userCols = `id,username,email,first_name,last_name,password_hash,is_admin,
  COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with an already hashed password.
func (r *UserRepo) Create(ctx context.Context, u domain.NewUser, hash string, admin bool) (*domain.User, error) {
	var taken int
	if err := r.DB.GetContext(ctx, &taken, `
		SELECT COUNT(*) FROM users WHERE username = ? OR LOWER(email) = LOWER(?)
	`, u.Username, u.Email); err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, fmt.Errorf("user with username or email already exists: %w", domain.ErrConflict)
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(username,email,first_name,last_name,password_hash,is_admin)
		VALUES(?,?,?,?,?,?)
	`, u.Username, u.Email, u.FirstName, u.LastName, hash, admin)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user with username or email already exists: %w", domain.ErrConflict)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// ByLogin finds a user by email (case-insensitive) or exact username.
func (r *UserRepo) ByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?) OR username=?`, login, login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", login, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// Promote grants admin and, when hash is non-empty, resets the password.
func (r *UserRepo) Promote(ctx context.Context, id int64, hash string) error {
	q := `UPDATE users SET is_admin=1, updated_at=CURRENT_TIMESTAMP WHERE id=?`
	args := []any{id}
	if hash != "" {
		q = `UPDATE users SET is_admin=1, password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`
		args = []any{hash, id}
	}
	_, err := r.DB.ExecContext(ctx, q, args...)
	return err
}

// Delete removes the user; their cart and its items cascade.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
