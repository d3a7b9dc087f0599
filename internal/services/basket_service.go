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

type BasketService struct {
	DB      *sqlx.DB
	Baskets *repos.BasketRepo
	Offers  *repos.OfferRepo
	Metrics *metrics.Metrics
}

func NewBasketService(db *sqlx.DB, m *metrics.Metrics) *BasketService {
	return &BasketService{
		DB:      db,
		Baskets: repos.NewBasketRepo(db),
		Offers:  repos.NewOfferRepo(db),
		Metrics: m,
	}
}

// BasketEntry is one requested addition. Fields stay loosely typed until
// validated so that "7" and 7 are both accepted.
type BasketEntry struct {
	ProductInfo any `json:"product_info"`
	Quantity    any `json:"quantity"`
}

// BasketChange overwrites the quantity of a basket line.
type BasketChange struct {
	ID       any `json:"id"`
	Quantity any `json:"quantity"`
}

type AddResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type line struct{ id, qty int64 }

const quantityRule = "must be an integer from 1 to 1000000"

// quantity reads one line quantity, bounded by domain.MaxQuantity.
func quantity(v any) (int64, bool) {
	n, ok := validate.ID(v)
	return n, ok && n <= domain.MaxQuantity
}

// Add validates every entry before writing anything; then, in one
// transaction, each offer already in the basket gets the quantity added to
// it and the others become new lines.
func (s *BasketService) Add(ctx context.Context, userID int64, entries []BasketEntry) (AddResult, error) {
	if len(entries) == 0 {
		return AddResult{}, invalid("items", "at least one item is required")
	}
	var ve ValidationError
	lines := make([]line, len(entries))
	for i, e := range entries {
		var ok bool
		if lines[i].id, ok = validate.ID(e.ProductInfo); !ok {
			ve.add(fmt.Sprintf("items[%d].product_info", i), "must be an offer id")
		}
		if lines[i].qty, ok = quantity(e.Quantity); !ok {
			ve.add(fmt.Sprintf("items[%d].quantity", i), quantityRule)
		}
	}
	if err := ve.orNil(); err != nil {
		return AddResult{}, err
	}

	var res AddResult
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		offers := repos.NewOfferRepo(tx)
		shops := repos.NewShopRepo(tx)
		baskets := repos.NewBasketRepo(tx)

		for i, l := range lines {
			field := fmt.Sprintf("items[%d].product_info", i)
			o, err := offers.Get(ctx, l.id)
			if errors.Is(err, sql.ErrNoRows) {
				ve.add(field, "unknown offer")
				continue
			}
			if err != nil {
				return err
			}
			if !o.Active {
				ve.add(field, "offer is no longer listed")
				continue
			}
			shop, err := shops.ByID(ctx, o.ShopID)
			if err != nil {
				return err
			}
			if !shop.State {
				ve.add(field, "shop is not accepting orders")
			}
		}
		if err := ve.orNil(); err != nil {
			return err
		}

		basketID, err := baskets.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		// merged totals per offer, seeded from the stored lines
		totals := make(map[int64]int64, len(lines))
		for i, l := range lines {
			held, seen := totals[l.id]
			if !seen {
				if held, err = baskets.LineQuantity(ctx, basketID, l.id); err != nil {
					return err
				}
			}
			if held+l.qty > domain.MaxQuantity {
				ve.add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("basket would hold more than %d", domain.MaxQuantity))
			}
			totals[l.id] = held + l.qty
		}
		if err := ve.orNil(); err != nil {
			return err
		}
		for _, l := range lines {
			held, err := baskets.LineQuantity(ctx, basketID, l.id)
			if err != nil {
				return err
			}
			if err := baskets.Add(ctx, basketID, l.id, l.qty); err != nil {
				return err
			}
			if held > 0 {
				res.Updated++
			} else {
				res.Created++
			}
		}
		return nil
	})
	if errors.Is(err, repos.ErrCheck) {
		return AddResult{}, invalid("items", "quantity out of range")
	}
	if err != nil {
		return AddResult{}, err
	}
	s.Metrics.BasketChanged("created", res.Created)
	s.Metrics.BasketChanged("merged", res.Updated)
	return res, nil
}

// Update overwrites quantities of lines in the caller's basket. The count is
// of matched lines, whether or not the value changed.
func (s *BasketService) Update(ctx context.Context, userID int64, changes []BasketChange) (int64, error) {
	if len(changes) == 0 {
		return 0, invalid("items", "at least one item is required")
	}
	var ve ValidationError
	lines := make([]line, len(changes))
	for i, c := range changes {
		var ok bool
		if lines[i].id, ok = validate.ID(c.ID); !ok {
			ve.add(fmt.Sprintf("items[%d].id", i), "must be a basket line id")
		}
		if lines[i].qty, ok = quantity(c.Quantity); !ok {
			ve.add(fmt.Sprintf("items[%d].quantity", i), quantityRule)
		}
	}
	if err := ve.orNil(); err != nil {
		return 0, err
	}

	var updated int64
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		baskets := repos.NewBasketRepo(tx)
		basketID, err := baskets.ID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, l := range lines {
			n, err := baskets.SetQuantity(ctx, basketID, l.id, l.qty)
			if err != nil {
				return err
			}
			updated += n
		}
		return nil
	})
	if errors.Is(err, repos.ErrCheck) {
		return 0, invalid("items", "quantity out of range")
	}
	if err != nil {
		return 0, err
	}
	s.Metrics.BasketChanged("updated", int(updated))
	return updated, nil
}

// Remove deletes lines of the caller's basket; foreign ids are ignored.
func (s *BasketService) Remove(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, invalid("items", "at least one id is required")
	}
	var deleted int64
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		baskets := repos.NewBasketRepo(tx)
		basketID, err := baskets.ID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		deleted, err = baskets.Delete(ctx, basketID, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.Metrics.BasketChanged("deleted", int(deleted))
	return deleted, nil
}

// View returns the basket with expanded lines. Reading never creates a basket.
func (s *BasketService) View(ctx context.Context, userID int64) (domain.OrderView, error) {
	empty := domain.OrderView{Status: domain.StatusBasket, Items: []domain.OrderItemView{}}
	basketID, err := s.Baskets.ID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return empty, nil
	}
	if err != nil {
		return empty, err
	}
	o, err := repos.NewOrderRepo(s.DB).Get(ctx, basketID)
	if err != nil {
		return empty, err
	}
	items, err := s.Baskets.Items(ctx, basketID)
	if err != nil {
		return empty, err
	}
	views, err := orderViews(ctx, s.Offers, []domain.Order{o}, items)
	if err != nil {
		return empty, err
	}
	return views[0], nil
}
