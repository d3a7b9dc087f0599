package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

type ContactHandler struct {
	Contacts *services.ContactService
}

func contactID(c *fiber.Ctx) (int64, bool) {
	return validate.ID(c.Params("id"))
}

// GET /user/contact
func (h *ContactHandler) List(c *fiber.Ctx) error {
	list, err := h.Contacts.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, list)
}

// POST /user/contact
func (h *ContactHandler) Create(c *fiber.Ctx) error {
	var in services.ContactInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ct, err := h.Contacts.Create(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "contact.create", map[string]any{"contact_id": ct.ID})
	return ok(c, fiber.StatusCreated, ct)
}

// PUT /user/contact/:id
func (h *ContactHandler) Update(c *fiber.Ctx) error {
	id, valid := contactID(c)
	if !valid {
		return abort(c, fiber.StatusNotFound, CodeNotFound, "contact not found")
	}
	var in services.ContactInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ct, err := h.Contacts.Update(c.UserContext(), currentUser(c).ID, id, in)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "contact.update", map[string]any{"contact_id": id})
	return ok(c, fiber.StatusOK, ct)
}

// DELETE /user/contact/:id
func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	id, valid := contactID(c)
	if !valid {
		return abort(c, fiber.StatusNotFound, CodeNotFound, "contact not found")
	}
	if err := h.Contacts.Delete(c.UserContext(), currentUser(c).ID, id); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "contact.delete", map[string]any{"contact_id": id})
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": 1})
}
