package domain

// OrderStatus is the lifecycle state of an order. An order in StatusBasket
// is the user's draft; every other status is read-only to the buyer.
type OrderStatus string

const (
	StatusBasket    OrderStatus = "basket"
	StatusNew       OrderStatus = "new"
	StatusConfirmed OrderStatus = "confirmed"
	StatusAssembled OrderStatus = "assembled"
	StatusSent      OrderStatus = "sent"
	StatusDelivered OrderStatus = "delivered"
	StatusCanceled  OrderStatus = "canceled"
)

// Upper bounds that keep quantity x price and order totals inside int64.
const (
	MaxQuantity = 1_000_000     // per order line, after merging
	MaxPrice    = 1_000_000_000 // per unit, price and price_rrc
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusBasket:    {StatusNew, StatusCanceled},
	StatusNew:       {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusAssembled, StatusCanceled},
	StatusAssembled: {StatusSent, StatusCanceled},
	StatusSent:      {StatusDelivered, StatusCanceled},
	StatusDelivered: {},
	StatusCanceled:  {},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := transitions[st]
	return st, ok
}

func (s OrderStatus) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID        int64       `db:"id"`
	UserID    int64       `db:"user_id"`
	ContactID *int64      `db:"contact_id"`
	CreatedAt string      `db:"created_at"`
	Status    OrderStatus `db:"status"`
}

type OrderItem struct {
	ID       int64 `db:"id"`
	OrderID  int64 `db:"order_id"`
	OfferID  int64 `db:"product_info_id"`
	Quantity int64 `db:"quantity"`
}

type OrderItemView struct {
	ID       int64     `json:"id"`
	Quantity int64     `json:"quantity"`
	Offer    OfferView `json:"product_info"`
}

type OrderView struct {
	ID        int64           `json:"id"`
	Status    OrderStatus     `json:"status"`
	CreatedAt string          `json:"date_time"`
	ContactID *int64          `json:"contact,omitempty"`
	Items     []OrderItemView `json:"ordered_items"`
	TotalCost int64           `json:"total_cost"`
}

// PartnerLine is one order line seen from the seller side.
type PartnerLine struct {
	OrderID     int64       `json:"order"`
	OrderStatus OrderStatus `json:"status"`
	Offer       OfferView   `json:"product_info"`
	Quantity    int64       `json:"quantity"`
	LineCost    int64       `json:"order_item_cost"`
	Contact     *Contact    `json:"contact"`
}
