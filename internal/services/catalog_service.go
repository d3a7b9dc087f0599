package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
	"marketplace/internal/pricelist"
	"marketplace/internal/repos"
	"marketplace/internal/validate"
)

type CatalogService struct {
	Shops  *repos.ShopRepo
	Cats   *repos.CategoryRepo
	Prods  *repos.ProductRepo
	Offers *repos.OfferRepo
}

func NewCatalogService(db sqlx.ExtContext) *CatalogService {
	return &CatalogService{
		Shops:  repos.NewShopRepo(db),
		Cats:   repos.NewCategoryRepo(db),
		Prods:  repos.NewProductRepo(db),
		Offers: repos.NewOfferRepo(db),
	}
}

func (s *CatalogService) ListShops(ctx context.Context) ([]domain.Shop, error) {
	return s.Shops.List(ctx)
}

type ShopInput struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Address string `json:"address"`
}

// CreateShop stores a new shop. An authenticated caller who owns no shop yet
// becomes its owner.
func (s *CatalogService) CreateShop(ctx context.Context, in ShopInput, caller *domain.User) (domain.Shop, error) {
	var ve ValidationError
	var ok bool
	if in.Name, ok = validate.Name(in.Name, 50); !ok {
		ve.add("name", "required, at most 50 characters")
	}
	if in.URL != "" {
		if err := pricelist.CheckURL(in.URL); err != nil {
			ve.add("url", "must be an http(s) url")
		}
	}
	if in.Address, ok = validate.Optional(in.Address, 200); !ok {
		ve.add("address", "at most 200 characters")
	}
	if err := ve.orNil(); err != nil {
		return domain.Shop{}, err
	}

	shop := domain.Shop{Name: in.Name, URL: in.URL, Address: in.Address, State: true}
	if caller != nil {
		_, err := s.Shops.ByOwner(ctx, caller.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id := caller.ID
			shop.OwnerID = &id
		case err != nil:
			return domain.Shop{}, err
		}
	}
	if err := s.Shops.Create(ctx, &shop); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return domain.Shop{}, fmt.Errorf("%w: shop %q already exists", ErrConflict, in.Name)
		}
		return domain.Shop{}, err
	}
	return shop, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID int64, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize
	return s.Prods.List(ctx, categoryID, pageSize, offset)
}

type ProductInput struct {
	Name     string `json:"name"`
	Category any    `json:"category"`
}

// CreateProduct adds a product; names are unique across the catalog here.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	var ve ValidationError
	name, ok := validate.Name(in.Name, 80)
	if !ok {
		ve.add("name", "required, at most 80 characters")
	}
	catID, ok := validate.ID(in.Category)
	if !ok {
		ve.add("category", "must be a category id")
	}
	if err := ve.orNil(); err != nil {
		return domain.Product{}, err
	}

	if _, err := s.Cats.Get(ctx, catID); errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, invalid("category", "unknown category")
	} else if err != nil {
		return domain.Product{}, err
	}
	if _, err := s.Prods.ByName(ctx, name); err == nil {
		return domain.Product{}, fmt.Errorf("%w: product %q already exists", ErrConflict, name)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, err
	}

	p := domain.Product{Name: name, CategoryID: catID}
	if err := s.Prods.Create(ctx, &p); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return domain.Product{}, fmt.Errorf("%w: product %q already exists", ErrConflict, name)
		}
		return domain.Product{}, err
	}
	return p, nil
}

// ListOffers returns buyable offers, optionally narrowed by shop or category.
func (s *CatalogService) ListOffers(ctx context.Context, shopID, categoryID int64) ([]domain.OfferView, error) {
	ids, err := s.Offers.ActiveIDs(ctx, shopID, categoryID)
	if err != nil {
		return nil, err
	}
	views, err := s.Offers.Views(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OfferView, 0, len(ids))
	for _, id := range ids {
		if v, ok := views[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// ShopState returns the shop owned by the partner.
func (s *CatalogService) ShopState(ctx context.Context, userID int64) (domain.Shop, error) {
	shop, err := s.Shops.ByOwner(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, fmt.Errorf("%w: no shop owned by this account", ErrNotFound)
	}
	return shop, err
}

// SetShopState opens or closes the partner's shop for new basket lines.
func (s *CatalogService) SetShopState(ctx context.Context, userID int64, state bool) (domain.Shop, error) {
	n, err := s.Shops.SetState(ctx, userID, state)
	if err != nil {
		return domain.Shop{}, err
	}
	if n == 0 {
		return domain.Shop{}, fmt.Errorf("%w: no shop owned by this account", ErrNotFound)
	}
	return s.ShopState(ctx, userID)
}
