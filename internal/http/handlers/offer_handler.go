package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/log"
	"marketplace/internal/services"
)

type OfferHandler struct {
	Catalog *services.CatalogService
}

// GET /offer?shop_id=&category_id=
func (h *OfferHandler) List(c *fiber.Ctx) error {
	shopID, okShop := queryID(c, "shop_id")
	catID, okCat := queryID(c, "category_id")
	if !okShop || !okCat {
		log.Security(c, "validation.fail", map[string]any{"field": "offer filter"})
		return fail(c, &services.ValidationError{Fields: map[string]string{"filter": "shop_id and category_id must be ids"}})
	}
	offers, err := h.Catalog.ListOffers(c.UserContext(), shopID, catID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, offers)
}
