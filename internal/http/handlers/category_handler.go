package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/log"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

// queryID reads an optional positive integer filter; ok is false only when
// the parameter is present and malformed.
func queryID(c *fiber.Ctx, key string) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	return validate.ID(raw)
}

type ShopHandler struct {
	Catalog *services.CatalogService
}

// GET /shop
func (h *ShopHandler) List(c *fiber.Ctx) error {
	shops, err := h.Catalog.ListShops(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, shops)
}

// POST /shop
func (h *ShopHandler) Create(c *fiber.Ctx) error {
	var in services.ShopInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	shop, err := h.Catalog.CreateShop(c.UserContext(), in, currentUser(c))
	if err != nil {
		return fail(c, err)
	}
	log.Audit(c, "shop.create", map[string]any{"shop_id": shop.ID, "name": shop.Name})
	return ok(c, fiber.StatusCreated, shop)
}

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /category
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, cats)
}
