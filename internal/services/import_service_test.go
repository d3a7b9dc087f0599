package services_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain"
	"marketplace/internal/pricelist"
	"marketplace/internal/services"
)

func TestImportCreatesCatalog(t *testing.T) {
	f := newFixture(t, staticSource{"http://prices.test/acme.yaml": acmeList})
	seller := f.user(t, "seller@acme.test", domain.RoleSeller)
	ctx := context.Background()

	res, err := f.imports.ImportURL(ctx, seller, "http://prices.test/acme.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Categories)
	assert.Equal(t, 2, res.Offers)
	assert.Zero(t, res.Retired)

	hammer := f.offer(t, "Hammer")
	assert.Equal(t, "Acme", hammer.Shop.Name)
	assert.Equal(t, int64(10), hammer.Quantity)
	assert.Equal(t, int64(500), hammer.Price)
	assert.Equal(t, int64(700), hammer.PriceRRC)
	assert.Equal(t, []domain.ParameterValue{{Parameter: "Weight", Value: "1kg"}}, hammer.Parameters)

	cats, err := f.catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, []int64{res.ShopID}, cats[0].Shops)

	shop, err := f.catalog.ShopState(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ShopID, shop.ID)
	assert.True(t, shop.State)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Imports.WithLabelValues("ok")))
}

func TestReimportReplacesOffers(t *testing.T) {
	f := newFixture(t, nil)
	seller := f.user(t, "seller@acme.test", domain.RoleSeller)
	ctx := context.Background()

	first := f.importList(t, seller, acmeList)
	second := f.importList(t, seller, acmeDrillOnly)
	assert.Equal(t, first.ShopID, second.ShopID)
	assert.Equal(t, int64(2), second.Retired)

	offers, err := f.catalog.ListOffers(ctx, second.ShopID, 0)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Drill", offers[0].Product.Name)
	assert.Equal(t, []domain.ParameterValue{{Parameter: "Power", Value: "700W"}}, offers[0].Parameters)
}

func TestReimportDropsBasketLinesButKeepsPlacedOrders(t *testing.T) {
	f := newFixture(t, nil)
	seller := f.user(t, "seller@acme.test", domain.RoleSeller)
	buyer := f.user(t, "buyer@example.test", domain.RoleBuyer)
	ctx := context.Background()

	f.importList(t, seller, acmeList)
	hammer := f.offer(t, "Hammer")
	ct := f.contact(t, buyer)

	_, err := f.baskets.Add(ctx, buyer.ID, []services.BasketEntry{{ProductInfo: float64(hammer.ID), Quantity: float64(1)}})
	require.NoError(t, err)
	placed, err := f.baskets.View(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, f.orders.Place(ctx, buyer.ID, float64(placed.ID), float64(ct.ID)))

	_, err = f.baskets.Add(ctx, buyer.ID, []services.BasketEntry{{ProductInfo: float64(hammer.ID), Quantity: float64(2)}})
	require.NoError(t, err)

	res := f.importList(t, seller, acmeDrillOnly)
	assert.Equal(t, int64(1), res.DroppedBasketLines)

	basket, err := f.baskets.View(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, basket.Items)

	orders, err := f.orders.List(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Hammer", orders[0].Items[0].Offer.Product.Name)
	assert.Equal(t, int64(500), orders[0].TotalCost)
}

func TestImportRejections(t *testing.T) {
	f := newFixture(t, staticSource{
		"http://prices.test/acme.yaml":  acmeList,
		"http://prices.test/bad.yaml":   "shop: [",
		"http://prices.test/other.yaml": "shop: Other\ncategories: [{id: 1, name: Hardware}]\ngoods: []",
	})
	seller := f.user(t, "seller@acme.test", domain.RoleSeller)
	rival := f.user(t, "rival@acme.test", domain.RoleSeller)
	buyer := f.user(t, "buyer@example.test", domain.RoleBuyer)
	ctx := context.Background()

	_, err := f.imports.ImportURL(ctx, buyer, "http://prices.test/acme.yaml")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.imports.ImportURL(ctx, seller, "")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.imports.ImportURL(ctx, seller, "ftp://prices.test/acme.yaml")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.imports.ImportURL(ctx, seller, "http://prices.test/missing.yaml")
	assert.ErrorIs(t, err, services.ErrUpstream)

	_, err = f.imports.ImportURL(ctx, seller, "http://prices.test/bad.yaml")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.imports.ImportURL(ctx, seller, "http://prices.test/acme.yaml")
	require.NoError(t, err)

	// same shop name, different owner
	_, err = f.imports.ImportURL(ctx, rival, "http://prices.test/acme.yaml")
	assert.ErrorIs(t, err, services.ErrConflict)

	// category 1 already exists under another name
	_, err = f.imports.ImportURL(ctx, rival, "http://prices.test/other.yaml")
	assert.ErrorIs(t, err, services.ErrConflict)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Imports.WithLabelValues("upstream")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Imports.WithLabelValues("conflict")))
}

func TestImportFailureLeavesNoPartialRows(t *testing.T) {
	f := newFixture(t, nil)
	seller := f.user(t, "seller@acme.test", domain.RoleSeller)
	f.importList(t, seller, acmeList)

	dup := `
shop: Acme
categories: [{id: 1, name: Tools}]
goods:
  - {name: Nail, category: 1, model: N1, price: 1, price_rrc: 2, quantity: 100, parameters: {}}
  - {name: Nail, category: 1, model: N1, price: 1, price_rrc: 2, quantity: 100, parameters: {}}
`
	doc, err := pricelist.Parse([]byte(dup))
	require.NoError(t, err)
	_, err = f.imports.Apply(context.Background(), seller, doc)
	assert.ErrorIs(t, err, services.ErrValidation)

	// the earlier catalog is untouched
	f.offer(t, "Hammer")
	f.offer(t, "Saw")
}
