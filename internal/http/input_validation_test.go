package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain"
)

func TestMalformedJSONBody(t *testing.T) {
	s := newServer(t)
	buyer := s.signup("buyer@example.test", domain.RoleBuyer)

	req := httptest.NewRequest("POST", "/api/v1/user/basket", bytes.NewBufferString(`{"items": [`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buyer)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), `"body"`)
}

func TestBasketInputValidation(t *testing.T) {
	s := newServer(t)
	seller := s.signup("partner@gadgets.test", domain.RoleSeller)
	s.mustCall(http.StatusOK, "POST", "/api/v1/partner/import", seller,
		map[string]string{"url": servePriceList(t, shopList)}, nil)
	var offers []domain.OfferView
	s.mustCall(http.StatusOK, "GET", "/api/v1/offer", "", nil, &offers)
	phone := findOffer(t, offers, "Phone X")

	buyer := s.signup("buyer@example.test", domain.RoleBuyer)

	cases := []struct {
		name  string
		items any
	}{
		{"no items", []any{}},
		{"zero quantity", []map[string]any{{"product_info": phone.ID, "quantity": 0}}},
		{"fractional quantity", []map[string]any{{"product_info": phone.ID, "quantity": 1.5}}},
		{"text offer", []map[string]any{{"product_info": "phone", "quantity": 1}}},
		{"quantity beyond int64", []map[string]any{{"product_info": phone.ID, "quantity": 9.3e18}}},
		{"quantity over ceiling", []map[string]any{{"product_info": phone.ID, "quantity": domain.MaxQuantity + 1}}},
		{"merged quantity over ceiling", []map[string]any{
			{"product_info": phone.ID, "quantity": domain.MaxQuantity},
			{"product_info": phone.ID, "quantity": 1},
		}},
		{"unknown offer", []map[string]any{{"product_info": phone.ID + 999, "quantity": 1}}},
		{"one bad entry spoils the batch", []map[string]any{
			{"product_info": phone.ID, "quantity": 1},
			{"product_info": phone.ID, "quantity": -2},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.call("POST", "/api/v1/user/basket", buyer, map[string]any{"items": tc.items})
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Equal(t, "validation_failed", env.Code)
			assert.NotEmpty(t, env.Errors)
		})
	}

	var basket domain.OrderView
	s.mustCall(http.StatusOK, "GET", "/api/v1/user/basket", buyer, nil, &basket)
	assert.Empty(t, basket.Items, "rejected batches leave nothing behind")

	status, env := s.call("DELETE", "/api/v1/user/basket", buyer, map[string]any{"items": "1,x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "items")

	var removed struct {
		Deleted int64 `json:"deleted"`
	}
	s.mustCall(http.StatusOK, "DELETE", "/api/v1/user/basket", buyer, map[string]any{"items": "1,2"}, &removed)
	assert.Zero(t, removed.Deleted)
}

func TestContactValidation(t *testing.T) {
	s := newServer(t)
	buyer := s.signup("buyer@example.test", domain.RoleBuyer)

	status, env := s.call("POST", "/api/v1/user/contact", buyer, map[string]string{"phone": "call me"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	for _, f := range []string{"city", "street", "house", "phone"} {
		assert.Contains(t, env.Errors, f)
	}

	status, _ = s.call("PUT", "/api/v1/user/contact/abc", buyer, map[string]string{})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCatalogFilters(t *testing.T) {
	s := newServer(t)

	status, env := s.call("GET", "/api/v1/offer?shop_id=x", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", env.Code)

	var offers []domain.OfferView
	s.mustCall(http.StatusOK, "GET", "/api/v1/offer?shop_id=42", "", nil, &offers)
	assert.Empty(t, offers)

	var products []domain.Product
	s.mustCall(http.StatusOK, "GET", "/api/v1/product?page=2", "", nil, &products)
	assert.Empty(t, products)
}

func TestImportRejectsBadInput(t *testing.T) {
	s := newServer(t)
	seller := s.signup("partner@gadgets.test", domain.RoleSeller)

	status, env := s.call("POST", "/api/v1/partner/import", seller, map[string]string{"url": "ftp://example.test/list.yaml"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "url")

	status, env = s.call("POST", "/api/v1/partner/import", seller, map[string]string{"url": servePriceList(t, "shop: [unclosed")})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Errors, "document")

	gone := httptest.NewServer(http.NotFoundHandler())
	defer gone.Close()
	status, env = s.call("POST", "/api/v1/partner/import", seller, map[string]string{"url": gone.URL + "/list.yaml"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "upstream_failed", env.Code)

	var shops []domain.Shop
	s.mustCall(http.StatusOK, "GET", "/api/v1/shop", "", nil, &shops)
	assert.Empty(t, shops)
}
