package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"marketplace/internal/domain"
	"marketplace/internal/log"
	"marketplace/internal/metrics"
	"marketplace/internal/pricelist"
	"marketplace/internal/repos"
)

// Source returns the raw bytes of a price list.
type Source interface {
	Fetch(url string) ([]byte, error)
}

type ImportService struct {
	DB      *sqlx.DB
	Source  Source
	Metrics *metrics.Metrics
}

func NewImportService(db *sqlx.DB, src Source, m *metrics.Metrics) *ImportService {
	return &ImportService{DB: db, Source: src, Metrics: m}
}

type ImportResult struct {
	ShopID             int64 `json:"shop_id"`
	Categories         int   `json:"categories"`
	Offers             int   `json:"offers"`
	Retired            int64 `json:"retired"`
	DroppedBasketLines int64 `json:"dropped_basket_lines"`
}

// ImportURL fetches, parses and applies the price list published at url.
func (s *ImportService) ImportURL(ctx context.Context, seller *domain.User, url string) (ImportResult, error) {
	res, err := s.importURL(ctx, seller, url)
	s.Metrics.ImportResult(resultLabel(err))
	return res, err
}

func (s *ImportService) importURL(ctx context.Context, seller *domain.User, url string) (ImportResult, error) {
	if seller == nil || seller.Role != domain.RoleSeller {
		return ImportResult{}, fmt.Errorf("%w: only partners can import price lists", ErrForbidden)
	}
	if url == "" {
		return ImportResult{}, invalid("url", "required")
	}
	body, err := s.Source.Fetch(url)
	switch {
	case errors.Is(err, pricelist.ErrBadURL):
		return ImportResult{}, invalid("url", "must be an absolute http(s) url")
	case err != nil:
		return ImportResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	doc, err := pricelist.Parse(body)
	if err != nil {
		return ImportResult{}, invalid("document", err.Error())
	}
	return s.Apply(ctx, seller, doc)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}
	return "error"
}

// Apply replaces the seller's catalog with doc in one transaction: previous
// offers are deactivated, basket lines pointing at them are dropped, and a
// fresh offer is stored for every good.
func (s *ImportService) Apply(ctx context.Context, seller *domain.User, doc *pricelist.Document) (ImportResult, error) {
	var res ImportResult
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		shops := repos.NewShopRepo(tx)
		cats := repos.NewCategoryRepo(tx)
		prods := repos.NewProductRepo(tx)
		offers := repos.NewOfferRepo(tx)
		baskets := repos.NewBasketRepo(tx)

		shop, err := sellerShop(ctx, shops, seller, doc.Shop)
		if err != nil {
			return err
		}
		res.ShopID = shop.ID

		for _, c := range doc.Categories {
			got, err := cats.Ensure(ctx, c.ID, c.Name)
			if err != nil {
				return err
			}
			if got.Name != c.Name {
				return fmt.Errorf("%w: category %d is already named %q", ErrConflict, c.ID, got.Name)
			}
			if err := cats.LinkShop(ctx, c.ID, shop.ID); err != nil {
				return err
			}
			res.Categories++
		}

		if res.Retired, err = offers.RetireShop(ctx, shop.ID); err != nil {
			return err
		}
		if res.DroppedBasketLines, err = baskets.DropRetired(ctx, shop.ID); err != nil {
			return err
		}

		for i, g := range doc.Goods {
			p, err := prods.Ensure(ctx, g.Name, g.Category)
			if err != nil {
				return err
			}
			o := domain.Offer{
				ProductID:   p.ID,
				ShopID:      shop.ID,
				Model:       g.Model,
				Description: g.Description,
				Quantity:    g.Quantity,
				Price:       g.Price,
				PriceRRC:    g.PriceRRC,
			}
			if err := offers.Create(ctx, &o); err != nil {
				if errors.Is(err, repos.ErrDuplicate) {
					return invalid(fmt.Sprintf("goods[%d]", i), "product listed twice for this shop")
				}
				return err
			}
			for _, prm := range g.Parameters {
				pid, err := offers.EnsureParameter(ctx, prm.Name)
				if err != nil {
					return err
				}
				if err := offers.AddParameter(ctx, o.ID, pid, prm.Value); err != nil {
					return err
				}
			}
			res.Offers++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	log.L().Info("pricelist.applied",
		zap.Int64("seller_id", seller.ID),
		zap.Int64("shop_id", res.ShopID),
		zap.Int("offers", res.Offers),
		zap.Int64("retired", res.Retired),
		zap.Int64("dropped_basket_lines", res.DroppedBasketLines),
	)
	return res, nil
}

// sellerShop gets or creates the shop named in the price list. Shops of
// other owners, or without an owner, are never taken over.
func sellerShop(ctx context.Context, shops *repos.ShopRepo, seller *domain.User, name string) (domain.Shop, error) {
	shop, err := shops.ByName(ctx, name)
	if err == nil {
		if shop.OwnerID == nil || *shop.OwnerID != seller.ID {
			return domain.Shop{}, fmt.Errorf("%w: shop %q belongs to another account", ErrConflict, name)
		}
		return shop, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, err
	}

	owner := seller.ID
	shop = domain.Shop{Name: name, State: true, OwnerID: &owner}
	if err := shops.Create(ctx, &shop); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return domain.Shop{}, fmt.Errorf("%w: this account already owns another shop", ErrConflict)
		}
		return domain.Shop{}, err
	}
	return shop, nil
}
