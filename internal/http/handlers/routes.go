package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"marketplace/internal/domain"
	applog "marketplace/internal/log"
)

// NewApp builds the fiber app with middlewares and every route mounted.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "marketplace",
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(applog.AccessLog())
	app.Use(helmet.New())
	app.Use(d.Metrics.Middleware())

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", d.Metrics.Handler())

	Mount(app, d)

	app.Use(func(c *fiber.Ctx) error {
		return abort(c, fiber.StatusNotFound, CodeNotFound, "route not found")
	})
	return app
}

// Mount registers the /api/v1 route table.
func Mount(app *fiber.App, d *Deps) {
	user := RequireUser(d.Auth)
	seller := RequireRole(domain.RoleSeller)

	loginMax := d.Config.LoginRateMax
	if loginMax <= 0 {
		loginMax = 5
	}
	loginLimiter := limiter.New(limiter.Config{
		Max:        loginMax,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return abort(c, fiber.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
		},
	})

	api := app.Group("/api/v1")

	api.Get("/shop", d.ShopHandler.List)
	api.Post("/shop", OptionalUser(d.Auth), d.ShopHandler.Create)
	api.Get("/product", d.ProductHandler.List)
	api.Post("/product", user, seller, d.ProductHandler.Create)
	api.Get("/category", d.CategoryHandler.List)
	api.Get("/offer", d.OfferHandler.List)
	api.Post("/import", user, seller, d.ImportHandler.Import)

	api.Post("/user/registration", d.AuthHandler.RegisterBuyer)
	api.Post("/user/registration/confirm", d.AuthHandler.Confirm)
	api.Post("/user/login", loginLimiter, d.AuthHandler.Login)

	api.Get("/user/contact", user, d.ContactHandler.List)
	api.Post("/user/contact", user, d.ContactHandler.Create)
	api.Put("/user/contact/:id", user, d.ContactHandler.Update)
	api.Delete("/user/contact/:id", user, d.ContactHandler.Delete)

	api.Get("/user/basket", user, d.BasketHandler.View)
	api.Post("/user/basket", user, d.BasketHandler.Add)
	api.Put("/user/basket", user, d.BasketHandler.Update)
	api.Delete("/user/basket", user, d.BasketHandler.Remove)

	api.Get("/user/order", user, d.OrderHandler.List)
	api.Post("/user/order", user, d.OrderHandler.Place)

	api.Post("/partner/registration", d.AuthHandler.RegisterPartner)
	api.Post("/partner/import", user, seller, d.ImportHandler.Import)
	api.Get("/partner/order", user, seller, d.PartnerHandler.Orders)
	api.Get("/partner/order/:id", user, seller, d.PartnerHandler.Orders)
	api.Get("/partner/state", user, seller, d.PartnerHandler.State)
	api.Post("/partner/state", user, seller, d.PartnerHandler.SetState)
}
