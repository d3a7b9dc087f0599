package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"marketplace/internal/domain"
	"marketplace/internal/log"
	"marketplace/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

// POST /user/registration
func (h *AuthHandler) RegisterBuyer(c *fiber.Ctx) error {
	return h.register(c, domain.RoleBuyer)
}

// POST /partner/registration
func (h *AuthHandler) RegisterPartner(c *fiber.Ctx) error {
	return h.register(c, domain.RoleSeller)
}

func (h *AuthHandler) register(c *fiber.Ctx, role domain.Role) error {
	var in services.Registration
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	u, err := h.Auth.Register(c.UserContext(), in, role)
	if err != nil && u == nil {
		if errors.Is(err, services.ErrValidation) {
			log.Security(c, "validation.fail", map[string]any{"op": "registration"})
		}
		return fail(c, err)
	}
	if err != nil {
		// account exists; only the notification failed
		log.Error(c, "auth.confirm.send.fail", err, map[string]any{"email": u.Email})
	}
	log.Audit(c, "auth.register", map[string]any{"email": u.Email, "role": string(role)})
	return ok(c, fiber.StatusCreated, u)
}

// POST /user/registration/confirm
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	var in struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	u, err := h.Auth.Confirm(c.UserContext(), in.Email, in.Token)
	if err != nil {
		log.Security(c, "auth.confirm.fail", map[string]any{"email": in.Email})
		return fail(c, err)
	}
	log.Audit(c, "auth.confirm", map[string]any{"email": u.Email})
	return ok(c, fiber.StatusOK, u)
}

// POST /user/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Email == "" {
		in.Email = in.Login
	}
	if in.Email == "" || in.Password == "" {
		return fail(c, &services.ValidationError{Fields: map[string]string{
			"email": "required", "password": "required",
		}})
	}

	tok, _, err := h.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		reason := "bad_credentials"
		if errors.Is(err, services.ErrInactive) {
			reason = "inactive"
		}
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": reason})
		return fail(c, err)
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": in.Email})
	return ok(c, fiber.StatusOK, fiber.Map{"token": tok})
}
