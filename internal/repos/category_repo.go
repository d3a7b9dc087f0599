package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type CategoryRepo struct{ db sqlx.ExtContext }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns every category with the ids of the shops offering it.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	if err := sel(ctx, r.db, &out, `SELECT id, name FROM categories ORDER BY name`); err != nil {
		return nil, err
	}
	var links []struct {
		CategoryID int64 `db:"category_id"`
		ShopID     int64 `db:"shop_id"`
	}
	if err := sel(ctx, r.db, &links, `SELECT category_id, shop_id FROM shop_categories ORDER BY shop_id`); err != nil {
		return nil, err
	}
	byCat := map[int64][]int64{}
	for _, l := range links {
		byCat[l.CategoryID] = append(byCat[l.CategoryID], l.ShopID)
	}
	for i := range out {
		out[i].Shops = byCat[out[i].ID]
		if out[i].Shops == nil {
			out[i].Shops = []int64{}
		}
	}
	return out, nil
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := get(ctx, r.db, &c, `SELECT id, name FROM categories WHERE id=?`, id)
	return c, err
}

// Ensure inserts the category when its id is free and returns the stored row,
// which may carry a different name if the id was already taken.
func (r *CategoryRepo) Ensure(ctx context.Context, id int64, name string) (domain.Category, error) {
	if _, err := exec(ctx, r.db, `INSERT INTO categories(id, name) VALUES(?,?) ON CONFLICT(id) DO NOTHING`, id, name); err != nil {
		return domain.Category{}, err
	}
	return r.Get(ctx, id)
}

func (r *CategoryRepo) LinkShop(ctx context.Context, categoryID, shopID int64) error {
	_, err := exec(ctx, r.db, `
		INSERT INTO shop_categories(category_id, shop_id) VALUES(?,?)
		ON CONFLICT(category_id, shop_id) DO NOTHING
	`, categoryID, shopID)
	return err
}
