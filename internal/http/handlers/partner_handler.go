package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

type PartnerHandler struct {
	Order   *services.OrderService
	Catalog *services.CatalogService
}

// GET /partner/order and /partner/order/:id
func (h *PartnerHandler) Orders(c *fiber.Ctx) error {
	var orderID int64
	if raw := c.Params("id"); raw != "" {
		id, valid := validate.ID(raw)
		if !valid {
			return abort(c, fiber.StatusNotFound, CodeNotFound, "order not found")
		}
		orderID = id
	}
	lines, total, err := h.Order.PartnerLines(c.UserContext(), currentUser(c).ID, orderID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"lines": lines, "total": total})
}

// GET /partner/state
func (h *PartnerHandler) State(c *fiber.Ctx) error {
	shop, err := h.Catalog.ShopState(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, shop)
}

// POST /partner/state {"state": false}
func (h *PartnerHandler) SetState(c *fiber.Ctx) error {
	var in struct {
		State *bool `json:"state"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.State == nil {
		return fail(c, &services.ValidationError{Fields: map[string]string{"state": "required boolean"}})
	}
	shop, err := h.Catalog.SetShopState(c.UserContext(), currentUser(c).ID, *in.State)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "partner.state", map[string]any{"shop_id": shop.ID, "state": shop.State})
	return ok(c, fiber.StatusOK, shop)
}
