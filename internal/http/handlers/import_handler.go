package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

type ImportHandler struct {
	Imports *services.ImportService
}

// POST /import and /partner/import
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	var in struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.Imports.ImportURL(c.UserContext(), currentUser(c), in.URL)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			applog.Security(c, "validation.fail", map[string]any{"op": "import", "url": in.URL})
		}
		return fail(c, err)
	}
	applog.Audit(c, "pricelist.import", map[string]any{
		"url":                  in.URL,
		"shop_id":              res.ShopID,
		"offers":               res.Offers,
		"retired":              res.Retired,
		"dropped_basket_lines": res.DroppedBasketLines,
	})
	return ok(c, fiber.StatusOK, res)
}
