package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopapi/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT
    id,
    name,
    COALESCE(created_at,'') AS created_at,
    COALESCE(updated_at,'') AS updated_at
  FROM categories
  ORDER BY name
`)
	return out, err
}

func (r *CategoryRepo) Create(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories(name) VALUES(?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("category %q: %w", name, domain.ErrConflict)
		}
		return domain.Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, err
	}
	var c domain.Category
	err = r.db.GetContext(ctx, &c, `
  SELECT id, name, COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at
  FROM categories WHERE id = ?`, id)
	return c, err
}

func categoryExists(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM categories WHERE id = ?`, id); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
