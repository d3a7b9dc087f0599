package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/pricelist"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

const acmeList = `
shop: Acme
categories:
  - id: 1
    name: Tools
goods:
  - name: Hammer
    category: 1
    model: H1
    price: 500
    price_rrc: 700
    quantity: 10
    parameters:
      Weight: 1kg
  - name: Saw
    category: 1
    model: S2
    price: 300
    price_rrc: 450
    quantity: 4
    parameters: {}
`

const acmeDrillOnly = `
shop: Acme
categories:
  - id: 1
    name: Tools
goods:
  - name: Drill
    category: 1
    model: D9
    price: 2000
    price_rrc: 2500
    quantity: 3
    parameters:
      Power: 700W
`

// staticSource serves price lists from memory.
type staticSource map[string]string

func (s staticSource) Fetch(url string) ([]byte, error) {
	if body, ok := s[url]; ok {
		return []byte(body), nil
	}
	if err := pricelist.CheckURL(url); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: status 404", pricelist.ErrUpstream)
}

type fixture struct {
	db       *sqlx.DB
	metrics  *metrics.Metrics
	imports  *services.ImportService
	catalog  *services.CatalogService
	baskets  *services.BasketService
	orders   *services.OrderService
	contacts *services.ContactService
}

func newFixture(t *testing.T, src staticSource) *fixture {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := metrics.New()
	return &fixture{
		db:       db,
		metrics:  m,
		imports:  services.NewImportService(db, src, m),
		catalog:  services.NewCatalogService(db),
		baskets:  services.NewBasketService(db, m),
		orders:   services.NewOrderService(db, m),
		contacts: services.NewContactService(db),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, FirstName: "Test", LastName: "User", Role: role, Active: true, Hash: "-"}
	_, err := repos.NewUserRepo(f.db).Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func (f *fixture) contact(t *testing.T, u *domain.User) domain.Contact {
	t.Helper()
	c, err := f.contacts.Create(context.Background(), u.ID, services.ContactInput{
		City: "Springfield", Street: "Main", House: "1", Phone: "+1 555 0100",
	})
	require.NoError(t, err)
	return c
}

// offer finds the active offer of a product by name.
func (f *fixture) offer(t *testing.T, product string) domain.OfferView {
	t.Helper()
	list, err := f.catalog.ListOffers(context.Background(), 0, 0)
	require.NoError(t, err)
	for _, o := range list {
		if o.Product.Name == product {
			return o
		}
	}
	t.Fatalf("no active offer for %s", product)
	return domain.OfferView{}
}

func (f *fixture) importList(t *testing.T, seller *domain.User, doc string) services.ImportResult {
	t.Helper()
	parsed, err := pricelist.Parse([]byte(doc))
	require.NoError(t, err)
	res, err := f.imports.Apply(context.Background(), seller, parsed)
	require.NoError(t, err)
	return res
}
