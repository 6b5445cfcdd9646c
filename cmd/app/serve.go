package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/wichananm65/pet-shop-storefront/internal/address"
	"github.com/wichananm65/pet-shop-storefront/internal/apiclient"
	"github.com/wichananm65/pet-shop-storefront/internal/blog"
	"github.com/wichananm65/pet-shop-storefront/internal/cache"
	"github.com/wichananm65/pet-shop-storefront/internal/cart"
	"github.com/wichananm65/pet-shop-storefront/internal/category"
	"github.com/wichananm65/pet-shop-storefront/internal/checkout"
	"github.com/wichananm65/pet-shop-storefront/internal/comparison"
	"github.com/wichananm65/pet-shop-storefront/internal/config"
	"github.com/wichananm65/pet-shop-storefront/internal/favorite"
	"github.com/wichananm65/pet-shop-storefront/internal/logging"
	"github.com/wichananm65/pet-shop-storefront/internal/order"
	"github.com/wichananm65/pet-shop-storefront/internal/product"
	"github.com/wichananm65/pet-shop-storefront/internal/user"
	"github.com/wichananm65/pet-shop-storefront/internal/web"
)

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	checkouts, closeDB, err := openCheckoutStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	client, err := apiclient.New(apiclient.Config{
		BaseURL:             cfg.BackendURL,
		SecurityTokenPath:   cfg.SecurityTokenPath,
		SecurityTokenCookie: cfg.SecurityTokenCookie,
		SecurityTokenHeader: cfg.SecurityTokenHeader,
		Locale:              cfg.Locale,
		Currency:            cfg.Currency,
		Timeout:             cfg.RequestTimeout,
		ScopedTokenTTL:      cfg.ScopedTokenTTL,
	}, store, log)
	if err != nil {
		return err
	}

	carts := cart.NewProvider(client)
	controller := checkout.NewController(client, carts, checkouts, log)
	carts.OnCartChanged(controller.OnCartChanged)

	sessions := user.NewSessions(store, cfg.SessionIdleTimeout)
	userService := user.NewService(client, client, sessions, log)
	client.OnUnauthenticated(userService.ForceLogout)

	visitors := web.NewVisitors(cfg.JWTSecret, cfg.CookieSecure)

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	setupCORS(app, cfg.AllowOrigins)
	app.Use(web.RequestLogger(log))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Use(visitors.Middleware())

	productHandler := product.NewHandler(product.NewService(client, store, cfg.CatalogCacheTTL))
	categoryHandler := category.NewHandler(category.NewService(client, store, cfg.CatalogCacheTTL))
	blogHandler := blog.NewHandler(blog.NewService(client, store, cfg.CatalogCacheTTL))
	cartHandler := cart.NewHandler(cart.NewService(client, carts))
	checkoutHandler := checkout.NewHandler(controller)
	favoriteHandler := favorite.NewHandler(favorite.NewService(client))
	comparisonHandler := comparison.NewHandler(comparison.NewService(client, client))
	orderHandler := order.NewHandler(order.NewService(client))
	userHandler := user.NewHandler(userService, visitors)
	addressHandler := address.NewHandler(address.NewService(client))

	productHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	blogHandler.RegisterPublicRoutes(app)
	cartHandler.RegisterPublicRoutes(app)
	checkoutHandler.RegisterPublicRoutes(app)
	favoriteHandler.RegisterPublicRoutes(app)
	comparisonHandler.RegisterPublicRoutes(app)
	orderHandler.RegisterPublicRoutes(app)
	userHandler.RegisterPublicRoutes(app)

	app.Use(visitors.RequireUser(sessions.HasUser))

	userHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)

	go pruneIdleSessions(ctx, client, controller, cfg.SessionIdleTimeout, log)

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("storefront listening")
		errc <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept",
		// the visitor cookie only travels to explicitly listed origins
		AllowCredentials: origins != "*",
	}))
}

func openCache(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn("STOREFRONT_REDIS_URL not set, using in-process cache")
		return cache.NewMemoryCache(), func() {}, nil
	}
	rc, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rc.Jitter = cache.TenPercentJitter
	return rc, func() { _ = rc.Close() }, nil
}

func openCheckoutStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (checkout.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("STOREFRONT_DATABASE_URL not set, checkout sessions will not survive a restart")
		return checkout.NewMemoryStore(), func() {}, nil
	}
	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := checkout.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func pruneIdleSessions(ctx context.Context, client *apiclient.Client, checkouts *checkout.Controller, maxIdle time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := client.PruneIdle(maxIdle); n > 0 {
				log.WithField("sessions", n).Debug("pruned idle backend sessions")
			}
			if n := checkouts.Prune(maxIdle); n > 0 {
				log.WithField("checkouts", n).Debug("pruned idle checkout flows")
			}
		}
	}
}

func purgeCheckouts(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("STOREFRONT_DATABASE_URL is required to purge checkout sessions")
	}

	db, err := openDB(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := checkout.NewPostgresStore(db).PurgeFinished(c.Context, c.Duration("older-than"))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"deleted": n, "older_than": c.Duration("older-than").String()}).Info("purged checkout sessions")
	return nil
}
