package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

// BasketRepo works on the single order in status "basket" a user may hold.
type BasketRepo struct{ db sqlx.ExtContext }

func NewBasketRepo(db sqlx.ExtContext) *BasketRepo { return &BasketRepo{db: db} }

// ID returns the user's basket order id, or sql.ErrNoRows.
func (r *BasketRepo) ID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := get(ctx, r.db, &id, `SELECT id FROM orders WHERE user_id=? AND status=?`, userID, string(domain.StatusBasket))
	return id, err
}

// Ensure returns the basket id, creating the basket when it does not exist.
func (r *BasketRepo) Ensure(ctx context.Context, userID int64) (int64, error) {
	if _, err := exec(ctx, r.db, `
		INSERT INTO orders(user_id, created_at, status) VALUES(?,?,?)
		ON CONFLICT(user_id) WHERE status = 'basket' DO NOTHING
	`, userID, now(), string(domain.StatusBasket)); err != nil {
		return 0, err
	}
	return r.ID(ctx, userID)
}

func (r *BasketRepo) Items(ctx context.Context, basketID int64) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	err := sel(ctx, r.db, &out, `
		SELECT id, order_id, product_info_id, quantity
		FROM order_items
		WHERE order_id=?
		ORDER BY id
	`, basketID)
	return out, err
}

// LineQuantity returns the quantity the basket holds of the offer, 0 when
// there is no such line.
func (r *BasketRepo) LineQuantity(ctx context.Context, basketID, offerID int64) (int64, error) {
	var n int64
	err := get(ctx, r.db, &n, `SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE order_id=? AND product_info_id=?`, basketID, offerID)
	return n, err
}

// Add inserts a line or sums the quantity into the existing one.
func (r *BasketRepo) Add(ctx context.Context, basketID, offerID, qty int64) error {
	_, err := exec(ctx, r.db, `
		INSERT INTO order_items(order_id, product_info_id, quantity) VALUES(?,?,?)
		ON CONFLICT(order_id, product_info_id) DO UPDATE SET quantity = order_items.quantity + excluded.quantity
	`, basketID, offerID, qty)
	return err
}

// SetQuantity overwrites the quantity of a line of this basket only.
func (r *BasketRepo) SetQuantity(ctx context.Context, basketID, itemID, qty int64) (int64, error) {
	return exec(ctx, r.db, `UPDATE order_items SET quantity=? WHERE id=? AND order_id=?`, qty, itemID, basketID)
}

// Delete removes the given lines of this basket and returns how many went.
func (r *BasketRepo) Delete(ctx context.Context, basketID int64, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`DELETE FROM order_items WHERE order_id=? AND id IN (?)`, basketID, itemIDs)
	if err != nil {
		return 0, err
	}
	return exec(ctx, r.db, q, args...)
}

// DropRetired removes basket lines pointing at inactive offers of a shop.
// Lines of placed orders are history and stay.
func (r *BasketRepo) DropRetired(ctx context.Context, shopID int64) (int64, error) {
	return exec(ctx, r.db, `
		DELETE FROM order_items
		WHERE product_info_id IN (SELECT id FROM product_infos WHERE shop_id=? AND active=?)
		  AND order_id IN (SELECT id FROM orders WHERE status=?)
	`, shopID, false, string(domain.StatusBasket))
}
