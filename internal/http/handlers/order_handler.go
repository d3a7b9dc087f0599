package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

type OrderHandler struct {
	Order *services.OrderService
}

// GET /user/order
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Order.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, orders)
}

// POST /user/order {"id":12,"contact":4}
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in struct {
		ID      any `json:"id"`
		Contact any `json:"contact"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.Order.Place(c.UserContext(), currentUser(c).ID, in.ID, in.Contact); err != nil {
		if errors.Is(err, services.ErrAlreadyPlaced) || errors.Is(err, services.ErrNotFound) {
			applog.Info(c, "order.place.noop", map[string]any{"order": in.ID, "reason": err.Error()})
		}
		return fail(c, err)
	}
	applog.Audit(c, "order.place", map[string]any{"order": in.ID, "contact": in.Contact})
	return ok(c, fiber.StatusOK, fiber.Map{"placed": 1})
}
