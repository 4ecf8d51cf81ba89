package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopapi/internal/domain"
)

const productCols = `
    id, slug, name, description, category_id, price, stock, size, unit, is_available,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

// getProduct reads one product through q, which may be the pool or a
// transaction.
func getProduct(ctx context.Context, q sqlx.QueryerContext, id int64) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, q, &p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.Product{}, notFound(err, "product", id)
	}
	return p, nil
}

// List returns available products, optionally filtered by a case-insensitive
// substring of name or description.
func (r *ProductRepo) List(ctx context.Context, pq domain.ProductQuery) ([]domain.Product, error) {
	where := `is_available = 1`
	args := []any{}
	if pq.Q != "" {
		like := "%" + escapeLike(strings.ToLower(pq.Q)) + "%"
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`
		args = append(args, like, like)
	}
	query := `SELECT` + productCols + `
  FROM products
  WHERE ` + where + `
  ORDER BY id
  LIMIT ? OFFSET ?`
	args = append(args, pq.Limit, pq.Skip)

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, np domain.NewProduct) (domain.Product, error) {
	var created domain.Product
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := categoryExists(ctx, tx, np.CategoryID); err != nil {
			return err
		}
		if err := nameFree(ctx, tx, np.Name, 0); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products(slug,name,description,category_id,price,stock,size,unit,is_available)
			VALUES(?,?,?,?,?,?,?,?,?)
		`, Slugify(np.Name), np.Name, np.Description, np.CategoryID, np.Price.StringFixed(2),
			np.Stock, np.Size, np.Unit, np.IsAvailable)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("product %q: %w", np.Name, domain.ErrConflict)
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getProduct(ctx, tx, id)
		return err
	})
	return created, err
}

// Update overwrites only the fields set in patch.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	var updated domain.Product
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil && *patch.Name != p.Name {
			if err := nameFree(ctx, tx, *patch.Name, id); err != nil {
				return err
			}
			p.Name = *patch.Name
			p.Slug = Slugify(p.Name)
		}
		if patch.CategoryID != nil && *patch.CategoryID != p.CategoryID {
			if err := categoryExists(ctx, tx, *patch.CategoryID); err != nil {
				return err
			}
			p.CategoryID = *patch.CategoryID
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
		}
		if patch.Size != nil {
			p.Size = patch.Size
		}
		if patch.Unit != nil {
			p.Unit = patch.Unit
		}
		if patch.IsAvailable != nil {
			p.IsAvailable = *patch.IsAvailable
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET slug=?, name=?, description=?, category_id=?, price=?, stock=?, size=?, unit=?,
			    is_available=?, updated_at=CURRENT_TIMESTAMP
			WHERE id=?
		`, p.Slug, p.Name, p.Description, p.CategoryID, p.Price.StringFixed(2), p.Stock, p.Size, p.Unit,
			p.IsAvailable, id)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("product %q: %w", p.Name, domain.ErrConflict)
			}
			return err
		}
		updated, err = getProduct(ctx, tx, id)
		return err
	})
	return updated, err
}

// Delete removes a product; cart items referencing it cascade.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nameFree(ctx context.Context, q sqlx.QueryerContext, name string, exceptID int64) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM products WHERE name = ? AND id != ?`, name, exceptID); err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("product %q already exists: %w", name, domain.ErrConflict)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
