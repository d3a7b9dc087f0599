package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/repos"
	"marketplace/internal/validate"
)

type OrderService struct {
	DB       *sqlx.DB
	Orders   *repos.OrderRepo
	Contacts *repos.ContactRepo
	Offers   *repos.OfferRepo
	Metrics  *metrics.Metrics
}

func NewOrderService(db *sqlx.DB, m *metrics.Metrics) *OrderService {
	return &OrderService{
		DB:       db,
		Orders:   repos.NewOrderRepo(db),
		Contacts: repos.NewContactRepo(db),
		Offers:   repos.NewOfferRepo(db),
		Metrics:  m,
	}
}

// Place turns the caller's basket into a new order delivered to contact.
// A missing or foreign order is ErrNotFound; an order that already left the
// basket state is ErrAlreadyPlaced.
func (s *OrderService) Place(ctx context.Context, userID int64, rawID, rawContact any) error {
	var ve ValidationError
	orderID, ok := validate.ID(rawID)
	if !ok {
		ve.add("id", "must be an order id")
	}
	contactID, ok := validate.ID(rawContact)
	if !ok {
		ve.add("contact", "must be a contact id")
	}
	if err := ve.orNil(); err != nil {
		return err
	}

	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := repos.NewOrderRepo(tx)

		if _, err := repos.NewContactRepo(tx).Get(ctx, contactID, userID); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: contact %d", ErrNotFound, contactID)
		} else if err != nil {
			return err
		}

		o, err := orders.Get(ctx, orderID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && o.UserID != userID) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}
		if o.Status != domain.StatusBasket {
			return ErrAlreadyPlaced
		}

		n, err := orders.Place(ctx, orderID, userID, contactID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAlreadyPlaced
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Metrics.OrderPlaced()
	return nil
}

// List returns the caller's placed orders with lines and totals.
func (s *OrderService) List(ctx context.Context, userID int64) ([]domain.OrderView, error) {
	orders, err := s.Orders.ListPlaced(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.Orders.Items(ctx, ids)
	if err != nil {
		return nil, err
	}
	return orderViews(ctx, s.Offers, orders, items)
}

// PartnerLines lists placed lines on the seller's offers, optionally for one
// order; total is the sum of quantity x recommended price.
func (s *OrderService) PartnerLines(ctx context.Context, sellerID, orderID int64) ([]domain.PartnerLine, int64, error) {
	rows, err := s.Orders.PartnerRows(ctx, sellerID, orderID)
	if err != nil {
		return nil, 0, err
	}

	var offerIDs, contactIDs []int64
	for _, r := range rows {
		offerIDs = append(offerIDs, r.OfferID)
		if r.ContactID != nil {
			contactIDs = append(contactIDs, *r.ContactID)
		}
	}
	views, err := s.Offers.Views(ctx, offerIDs)
	if err != nil {
		return nil, 0, err
	}
	contacts, err := s.Contacts.ByIDs(ctx, contactIDs)
	if err != nil {
		return nil, 0, err
	}

	lines := make([]domain.PartnerLine, 0, len(rows))
	var total int64
	for _, r := range rows {
		l := domain.PartnerLine{
			OrderID:     r.OrderID,
			OrderStatus: r.Status,
			Offer:       views[r.OfferID],
			Quantity:    r.Quantity,
			LineCost:    r.Quantity * r.PriceRRC,
		}
		if r.ContactID != nil {
			if c, ok := contacts[*r.ContactID]; ok {
				l.Contact = &c
			}
		}
		total += l.LineCost
		lines = append(lines, l)
	}
	return lines, total, nil
}

// Advance moves a placed order one step along its lifecycle. Leaving the
// basket state is only possible through Place.
func (s *OrderService) Advance(ctx context.Context, orderID int64, to domain.OrderStatus) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return domain.Order{}, err
	}
	if o.Status == domain.StatusBasket {
		return domain.Order{}, invalid("status", "a basket is placed by its owner")
	}
	if !o.Status.CanTransition(to) {
		return domain.Order{}, fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, o.Status, to)
	}
	n, err := s.Orders.SetStatus(ctx, orderID, o.Status, to)
	if err != nil {
		return domain.Order{}, err
	}
	if n == 0 {
		return domain.Order{}, fmt.Errorf("%w: order %d changed concurrently", ErrConflict, orderID)
	}
	o.Status = to
	return o, nil
}

// orderViews expands orders with their lines; total_cost is the sum of
// quantity x offer price.
func orderViews(ctx context.Context, offers *repos.OfferRepo, orders []domain.Order, items []domain.OrderItem) ([]domain.OrderView, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.OfferID)
	}
	views, err := offers.Views(ctx, ids)
	if err != nil {
		return nil, err
	}

	byOrder := map[int64][]domain.OrderItem{}
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	out := make([]domain.OrderView, 0, len(orders))
	for _, o := range orders {
		v := domain.OrderView{
			ID:        o.ID,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			ContactID: o.ContactID,
			Items:     []domain.OrderItemView{},
		}
		for _, it := range byOrder[o.ID] {
			offer := views[it.OfferID]
			v.Items = append(v.Items, domain.OrderItemView{ID: it.ID, Quantity: it.Quantity, Offer: offer})
			v.TotalCost += it.Quantity * offer.Price
		}
		out = append(out, v)
	}
	return out, nil
}
