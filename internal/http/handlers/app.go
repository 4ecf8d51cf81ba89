package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "shopapi/internal/log"
)

type Options struct {
	// AccessLog enables the fiber request logger.
	AccessLog bool
	// RequestsPerMinute is the global per-IP limit; 0 disables it.
	RequestsPerMinute int
	// LoginAttempts is the per-IP login limit per 10 minutes; 0 disables it.
	LoginAttempts int
}

func DefaultOptions() Options {
	return Options{AccessLog: true, RequestsPerMinute: 120, LoginAttempts: 5}
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(d *Deps, o Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "shopapi",
		BodyLimit:    1 << 20, // 1 MiB
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	if o.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	if o.RequestsPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        o.RequestsPerMinute,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return detail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
			},
		}))
	}

	// ---------- Auth ----------
	loginChain := []fiber.Handler{}
	if o.LoginAttempts > 0 {
		loginChain = append(loginChain, limiter.New(limiter.Config{
			Max:        o.LoginAttempts,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "|login"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return detail(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
			},
		}))
	}
	loginChain = append(loginChain, d.AuthHandler.Login)

	app.Post("/register", d.AuthHandler.Register)
	app.Post("/login", loginChain...)
	app.Get("/me", RequireUser(d.Auth), d.AuthHandler.Me)

	// ---------- Catalog ----------
	admin := RequireAdmin(d.Auth)
	app.Get("/categories", d.CategoryHandler.List)
	app.Post("/categories", admin, d.CategoryHandler.Create)

	app.Get("/products", d.ProductHandler.List)
	app.Get("/products/:id", d.ProductHandler.Detail)
	app.Post("/products", admin, d.ProductHandler.Create)
	app.Patch("/products/:id", admin, d.ProductHandler.Update)
	app.Delete("/products/:id", admin, d.ProductHandler.Delete)

	// ---------- Cart ----------
	cart := app.Group("/cart", RequireUser(d.Auth))
	cart.Get("/", d.CartHandler.View)
	cart.Delete("/", d.CartHandler.Clear)
	cart.Post("/items", d.CartHandler.Add)
	cart.Put("/items/:product_id", d.CartHandler.Update)
	cart.Delete("/items/:product_id", d.CartHandler.Remove)

	// Health & 404
	app.Get("/healthz", d.health)
	app.Use(func(c *fiber.Ctx) error {
		return detail(c, fiber.StatusNotFound, "Not Found")
	})
	return app
}

// health pings the database; a cache failure is reported but not fatal.
func (d *Deps) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := d.DB.PingContext(ctx); err != nil {
		applog.Error(c, "health.db.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
	}
	cacheOK := true
	if err := d.Cache.Ping(ctx); err != nil {
		applog.Warn(c, "health.cache.fail", err, nil)
		cacheOK = false
	}
	return c.JSON(fiber.Map{"ok": true, "cache": cacheOK})
}
