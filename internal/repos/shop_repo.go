package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type ShopRepo struct{ db sqlx.ExtContext }

func NewShopRepo(db sqlx.ExtContext) *ShopRepo { return &ShopRepo{db: db} }

const shopCols = `id, name, url, address, state, user_id`

func (r *ShopRepo) List(ctx context.Context) ([]domain.Shop, error) {
	out := []domain.Shop{}
	err := sel(ctx, r.db, &out, `SELECT `+shopCols+` FROM shops ORDER BY name`)
	return out, err
}

func (r *ShopRepo) ByID(ctx context.Context, id int64) (domain.Shop, error) {
	var s domain.Shop
	err := get(ctx, r.db, &s, `SELECT `+shopCols+` FROM shops WHERE id=?`, id)
	return s, err
}

func (r *ShopRepo) ByName(ctx context.Context, name string) (domain.Shop, error) {
	var s domain.Shop
	err := get(ctx, r.db, &s, `SELECT `+shopCols+` FROM shops WHERE name=?`, name)
	return s, err
}

func (r *ShopRepo) ByOwner(ctx context.Context, userID int64) (domain.Shop, error) {
	var s domain.Shop
	err := get(ctx, r.db, &s, `SELECT `+shopCols+` FROM shops WHERE user_id=?`, userID)
	return s, err
}

func (r *ShopRepo) Create(ctx context.Context, s *domain.Shop) error {
	id, err := insert(ctx, r.db, `
		INSERT INTO shops(name, url, address, state, user_id)
		VALUES(?,?,?,?,?)
		RETURNING id
	`, s.Name, s.URL, s.Address, s.State, s.OwnerID)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (r *ShopRepo) SetState(ctx context.Context, userID int64, state bool) (int64, error) {
	return exec(ctx, r.db, `UPDATE shops SET state=? WHERE user_id=?`, state, userID)
}
