package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, contact_id, created_at, status`

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := get(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE id=?`, id)
	return o, err
}

// Place moves the user's basket to "new". It updates nothing (0 rows) when
// the order is not a basket of this user anymore.
func (r *OrderRepo) Place(ctx context.Context, id, userID, contactID int64) (int64, error) {
	return exec(ctx, r.db, `
		UPDATE orders SET status=?, contact_id=?, created_at=?
		WHERE id=? AND user_id=? AND status=?
	`, string(domain.StatusNew), contactID, now(), id, userID, string(domain.StatusBasket))
}

// ListPlaced returns every non-basket order of the user, newest first.
func (r *OrderRepo) ListPlaced(ctx context.Context, userID int64) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sel(ctx, r.db, &out, `
		SELECT `+orderCols+`
		FROM orders
		WHERE user_id=? AND status<>?
		ORDER BY created_at DESC, id DESC
	`, userID, string(domain.StatusBasket))
	return out, err
}

// Items returns the lines of several orders at once.
func (r *OrderRepo) Items(ctx context.Context, orderIDs []int64) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`
		SELECT id, order_id, product_info_id, quantity
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, id
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	err = sel(ctx, r.db, &out, q, args...)
	return out, err
}

// SetStatus is a compare-and-set on the status column.
func (r *OrderRepo) SetStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (int64, error) {
	return exec(ctx, r.db, `UPDATE orders SET status=? WHERE id=? AND status=?`, string(to), id, string(from))
}

// PartnerRow is one placed order line of an offer owned by the seller.
type PartnerRow struct {
	OrderID   int64              `db:"order_id"`
	Status    domain.OrderStatus `db:"status"`
	ContactID *int64             `db:"contact_id"`
	ItemID    int64              `db:"item_id"`
	OfferID   int64              `db:"product_info_id"`
	Quantity  int64              `db:"quantity"`
	PriceRRC  int64              `db:"price_rrc"`
}

// PartnerRows lists placed lines on the seller's shop, optionally for one
// order only (orderID 0 = all).
func (r *OrderRepo) PartnerRows(ctx context.Context, sellerID, orderID int64) ([]PartnerRow, error) {
	where := `s.user_id = ? AND o.status <> ?`
	args := []any{sellerID, string(domain.StatusBasket)}
	if orderID > 0 {
		where += ` AND o.id = ?`
		args = append(args, orderID)
	}
	out := []PartnerRow{}
	err := sel(ctx, r.db, &out, `
		SELECT o.id AS order_id, o.status, o.contact_id,
		       oi.id AS item_id, oi.product_info_id, oi.quantity, pi.price_rrc
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN product_infos pi ON pi.id = oi.product_info_id
		JOIN shops s ON s.id = pi.shop_id
		WHERE `+where+`
		ORDER BY o.id DESC, oi.id
	`, args...)
	return out, err
}
