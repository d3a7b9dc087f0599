package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

type BasketHandler struct {
	Basket *services.BasketService
}

// GET /user/basket
func (h *BasketHandler) View(c *fiber.Ctx) error {
	v, err := h.Basket.View(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, v)
}

// POST /user/basket {"items":[{"product_info":7,"quantity":2}]}
func (h *BasketHandler) Add(c *fiber.Ctx) error {
	var in struct {
		Items []services.BasketEntry `json:"items"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.Basket.Add(c.UserContext(), currentUser(c).ID, in.Items)
	if err != nil {
		return fail(c, err)
	}
	applog.Info(c, "basket.add", map[string]any{"created": res.Created, "updated": res.Updated})
	return ok(c, fiber.StatusOK, res)
}

// PUT /user/basket {"items":[{"id":3,"quantity":5}]}
func (h *BasketHandler) Update(c *fiber.Ctx) error {
	var in struct {
		Items []services.BasketChange `json:"items"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	n, err := h.Basket.Update(c.UserContext(), currentUser(c).ID, in.Items)
	if err != nil {
		return fail(c, err)
	}
	applog.Info(c, "basket.update", map[string]any{"updated": n})
	return ok(c, fiber.StatusOK, fiber.Map{"updated": n})
}

// DELETE /user/basket {"items":[3,4]} or {"items":"3,4"}
func (h *BasketHandler) Remove(c *fiber.Ctx) error {
	var in struct {
		Items any `json:"items"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ids, valid := validate.IDList(in.Items)
	if !valid {
		return fail(c, &services.ValidationError{Fields: map[string]string{"items": "list of basket line ids"}})
	}
	n, err := h.Basket.Remove(c.UserContext(), currentUser(c).ID, ids)
	if err != nil {
		return fail(c, err)
	}
	applog.Info(c, "basket.remove", map[string]any{"deleted": n})
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": n})
}
