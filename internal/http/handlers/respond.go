package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

// Error codes clients may switch on.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeValidation      = "validation_failed"
	CodeConflict        = "conflict"
	CodeNotFound        = "not_found"
	CodeAlreadyPlaced   = "already_placed"
	CodeUpstream        = "upstream_failed"
	CodeInternal        = "internal"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Code    string            `json:"code,omitempty"`
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Status: true, Data: data})
}

func abort(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(Envelope{Status: false, Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, &services.ValidationError{Fields: map[string]string{"body": "malformed JSON body"}})
}

// fail maps a service error onto status, code and message. Unknown errors
// are logged and answered with a generic 500.
func fail(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
			Code: CodeValidation, Message: "validation failed", Errors: ve.Fields,
		})
	case errors.Is(err, services.ErrBadCredentials):
		return abort(c, fiber.StatusUnauthorized, CodeUnauthenticated, err.Error())
	case errors.Is(err, services.ErrInactive):
		return abort(c, fiber.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return abort(c, fiber.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return abort(c, fiber.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyPlaced):
		return abort(c, fiber.StatusConflict, CodeAlreadyPlaced, "order already placed")
	case errors.Is(err, services.ErrConflict):
		return abort(c, fiber.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, services.ErrUpstream):
		applog.Error(c, "upstream.fail", err, nil)
		return abort(c, fiber.StatusBadGateway, CodeUpstream, "could not fetch the price list")
	}
	applog.Error(c, "request.fail", err, nil)
	return abort(c, fiber.StatusInternalServerError, CodeInternal, "internal error")
}

// ErrorHandler answers errors that escaped the handlers (fiber routing
// errors, body limits, panics turned into errors by recover).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeValidation
		switch {
		case fe.Code == fiber.StatusNotFound || fe.Code == fiber.StatusMethodNotAllowed:
			code = CodeNotFound
		case fe.Code == fiber.StatusTooManyRequests:
			code = "rate_limited"
		}
		if fe.Code >= 500 {
			applog.Error(c, "server.error", err, nil)
			return abort(c, fe.Code, CodeInternal, "internal error")
		}
		return abort(c, fe.Code, code, fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return abort(c, fiber.StatusInternalServerError, CodeInternal, "internal error")
}
