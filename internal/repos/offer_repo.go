package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

// OfferRepo covers product_infos and their parameters.
type OfferRepo struct{ db sqlx.ExtContext }

func NewOfferRepo(db sqlx.ExtContext) *OfferRepo { return &OfferRepo{db: db} }

const offerCols = `id, product_id, shop_id, model, description, quantity, price, price_rrc, active`

func (r *OfferRepo) Get(ctx context.Context, id int64) (domain.Offer, error) {
	var o domain.Offer
	err := get(ctx, r.db, &o, `SELECT `+offerCols+` FROM product_infos WHERE id=?`, id)
	return o, err
}

func (r *OfferRepo) Create(ctx context.Context, o *domain.Offer) error {
	id, err := insert(ctx, r.db, `
		INSERT INTO product_infos(product_id, shop_id, model, description, quantity, price, price_rrc, active)
		VALUES(?,?,?,?,?,?,?,?)
		RETURNING id
	`, o.ProductID, o.ShopID, o.Model, o.Description, o.Quantity, o.Price, o.PriceRRC, true)
	if err != nil {
		return err
	}
	o.ID = id
	o.Active = true
	return nil
}

// RetireShop deactivates every active offer of the shop.
func (r *OfferRepo) RetireShop(ctx context.Context, shopID int64) (int64, error) {
	return exec(ctx, r.db, `UPDATE product_infos SET active=? WHERE shop_id=? AND active=?`, false, shopID, true)
}

func (r *OfferRepo) CountActive(ctx context.Context, shopID int64) (int, error) {
	var n int
	err := get(ctx, r.db, &n, `SELECT COUNT(*) FROM product_infos WHERE shop_id=? AND active=?`, shopID, true)
	return n, err
}

// EnsureParameter gets or creates the global parameter name.
func (r *OfferRepo) EnsureParameter(ctx context.Context, name string) (int64, error) {
	if _, err := exec(ctx, r.db, `INSERT INTO parameters(name) VALUES(?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, err
	}
	var id int64
	err := get(ctx, r.db, &id, `SELECT id FROM parameters WHERE name=?`, name)
	return id, err
}

func (r *OfferRepo) AddParameter(ctx context.Context, offerID, parameterID int64, value string) error {
	_, err := exec(ctx, r.db, `
		INSERT INTO product_parameters(product_info_id, parameter_id, value) VALUES(?,?,?)
	`, offerID, parameterID, value)
	return err
}

// ActiveIDs lists offers that can be bought: active rows of shops accepting orders.
// Zero filters are ignored.
func (r *OfferRepo) ActiveIDs(ctx context.Context, shopID, categoryID int64) ([]int64, error) {
	where := `pi.active = ? AND s.state = ?`
	args := []any{true, true}
	if shopID > 0 {
		where += ` AND pi.shop_id = ?`
		args = append(args, shopID)
	}
	if categoryID > 0 {
		where += ` AND p.category_id = ?`
		args = append(args, categoryID)
	}
	var ids []int64
	err := sel(ctx, r.db, &ids, `
		SELECT pi.id
		FROM product_infos pi
		JOIN products p ON p.id = pi.product_id
		JOIN shops s ON s.id = pi.shop_id
		WHERE `+where+`
		ORDER BY pi.id
	`, args...)
	return ids, err
}

type offerRow struct {
	ID          int64  `db:"id"`
	Model       string `db:"model"`
	Description string `db:"description"`
	Quantity    int64  `db:"quantity"`
	Price       int64  `db:"price"`
	PriceRRC    int64  `db:"price_rrc"`
	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`
	CategoryID  int64  `db:"category_id"`
	ShopID      int64  `db:"shop_id"`
	ShopName    string `db:"shop_name"`
	ShopState   bool   `db:"shop_state"`
}

// Views expands offers with product, shop and parameters, keyed by offer id.
func (r *OfferRepo) Views(ctx context.Context, ids []int64) (map[int64]domain.OfferView, error) {
	out := map[int64]domain.OfferView{}
	if len(ids) == 0 {
		return out, nil
	}

	q, args, err := sqlx.In(`
		SELECT pi.id, pi.model, pi.description, pi.quantity, pi.price, pi.price_rrc,
		       p.id AS product_id, p.name AS product_name, p.category_id,
		       s.id AS shop_id, s.name AS shop_name, s.state AS shop_state
		FROM product_infos pi
		JOIN products p ON p.id = pi.product_id
		JOIN shops s ON s.id = pi.shop_id
		WHERE pi.id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var rows []offerRow
	if err := sel(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = domain.OfferView{
			ID:          row.ID,
			Model:       row.Model,
			Description: row.Description,
			Quantity:    row.Quantity,
			Price:       row.Price,
			PriceRRC:    row.PriceRRC,
			Product:     domain.Product{ID: row.ProductID, Name: row.ProductName, CategoryID: row.CategoryID},
			Shop:        domain.ShopRef{ID: row.ShopID, Name: row.ShopName, State: row.ShopState},
			Parameters:  []domain.ParameterValue{},
		}
	}

	q, args, err = sqlx.In(`
		SELECT pp.product_info_id, pa.name AS parameter, pp.value
		FROM product_parameters pp
		JOIN parameters pa ON pa.id = pp.parameter_id
		WHERE pp.product_info_id IN (?)
		ORDER BY pp.id
	`, ids)
	if err != nil {
		return nil, err
	}
	var params []struct {
		OfferID int64 `db:"product_info_id"`
		domain.ParameterValue
	}
	if err := sel(ctx, r.db, &params, q, args...); err != nil {
		return nil, err
	}
	for _, p := range params {
		v, ok := out[p.OfferID]
		if !ok {
			continue
		}
		v.Parameters = append(v.Parameters, p.ParameterValue)
		out[p.OfferID] = v
	}
	return out, nil
}
