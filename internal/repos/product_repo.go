package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

// List returns products, optionally limited to one category (0 = all).
func (r *ProductRepo) List(ctx context.Context, categoryID int64, limit, offset int) ([]domain.Product, error) {
	where := `1=1`
	args := []any{}
	if categoryID > 0 {
		where += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	args = append(args, limit, offset)

	out := []domain.Product{}
	err := sel(ctx, r.db, &out, `
		SELECT id, name, category_id
		FROM products
		WHERE `+where+`
		ORDER BY name, id
		LIMIT ? OFFSET ?
	`, args...)
	return out, err
}

func (r *ProductRepo) ByName(ctx context.Context, name string) (domain.Product, error) {
	var p domain.Product
	err := get(ctx, r.db, &p, `SELECT id, name, category_id FROM products WHERE name=? ORDER BY id LIMIT 1`, name)
	return p, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	id, err := insert(ctx, r.db, `INSERT INTO products(name, category_id) VALUES(?,?) RETURNING id`, p.Name, p.CategoryID)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// Ensure gets or creates the product keyed by (name, category).
func (r *ProductRepo) Ensure(ctx context.Context, name string, categoryID int64) (domain.Product, error) {
	if _, err := exec(ctx, r.db, `
		INSERT INTO products(name, category_id) VALUES(?,?)
		ON CONFLICT(name, category_id) DO NOTHING
	`, name, categoryID); err != nil {
		return domain.Product{}, err
	}
	var p domain.Product
	err := get(ctx, r.db, &p, `SELECT id, name, category_id FROM products WHERE name=? AND category_id=?`, name, categoryID)
	return p, err
}
