package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/oculent/storefront-backend/api/routes"
	"github.com/oculent/storefront-backend/internal/cart"
	"github.com/oculent/storefront-backend/internal/catalog"
	"github.com/oculent/storefront-backend/internal/orders"
	"github.com/oculent/storefront-backend/pkg/config"
	"github.com/oculent/storefront-backend/pkg/kv"
	"github.com/oculent/storefront-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	if cfg.App.IsProd() && cfg.Store.Driver == config.StoreDriverMemory {
		logg.Warn(ctx, "memory store selected in production, carts and orders will not survive a restart")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "failed to open durable store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(ctx, "error closing durable store", err)
		}
	}()

	cat := catalog.New()

	cartService, err := cart.NewService(ctx, store, cat, cfg.Store.CartKey)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}
	cartService.Subscribe(func(event cart.Event) {
		evCtx := logg.WithFields(ctx, map[string]any{
			"message":    event.Message,
			"item_count": event.ItemCount,
		})
		logg.Info(evCtx, "cart.changed")
	})

	ordersService, err := orders.NewService(store, cartService, cfg.Store.OrdersKey, cfg.Checkout.Rate())
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"store_driver": cfg.Store.Driver,
	})
	logg.Info(ctx, "starting storefront api")

	var storeP kv.Pinger
	if p, ok := store.(kv.Pinger); ok {
		storeP = p
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, storeP, cat, cartService, ordersService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return kv.NewMemoryStore(), nil
	case config.StoreDriverFile:
		return kv.NewFileStore(cfg.Store.FileDir)
	case config.StoreDriverSQLite:
		return kv.NewSQLiteStore(cfg.Store.SQLitePath)
	case config.StoreDriverRedis:
		return kv.NewRedisStore(ctx, cfg.Redis)
	}
	// config.Load validates the driver; this is unreachable.
	return kv.NewMemoryStore(), nil
}
