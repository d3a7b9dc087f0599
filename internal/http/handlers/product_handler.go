package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/log"
	"marketplace/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /product?category_id=&page=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	catID, valid := queryID(c, "category_id")
	if !valid {
		log.Security(c, "validation.fail", map[string]any{"field": "category_id"})
		return fail(c, &services.ValidationError{Fields: map[string]string{"category_id": "must be a category id"}})
	}
	products, err := h.Catalog.ListProducts(c.UserContext(), catID, c.QueryInt("page", 1), c.QueryInt("page_size", 50))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, products)
}

// POST /product
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID})
	return ok(c, fiber.StatusCreated, p)
}
