package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/nexus-commerce/api/controllers"
	"github.com/angelmondragon/nexus-commerce/api/routes"
	"github.com/angelmondragon/nexus-commerce/internal/cart"
	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	checkoutsvc "github.com/angelmondragon/nexus-commerce/internal/checkout"
	"github.com/angelmondragon/nexus-commerce/internal/notifications"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/internal/payments"
	"github.com/angelmondragon/nexus-commerce/pkg/config"
	"github.com/angelmondragon/nexus-commerce/pkg/db"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/metrics"
	"github.com/angelmondragon/nexus-commerce/pkg/migrate"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	services, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Idempotency: redisClient,
		}, services),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	publisher := outbox.NewService(outbox.NewRepository(gormDB), logg)

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	cartService, err := cart.NewService(cartRepo, catalogRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, publisher, catalog.NewRestorer(catalogRepo))
	if err != nil {
		return routes.Services{}, err
	}
	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		cartRepo,
		catalogRepo,
		ordersRepo,
		publisher,
		checkoutsvc.Options{
			TaxRate:             cfg.Checkout.TaxRateDecimal(),
			LockTimeout:         cfg.Checkout.LockTimeout,
			OrderNumberAttempts: cfg.Checkout.OrderNumberAttempts,
			Currency:            cfg.Checkout.DefaultCurrency,
		},
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}
	paymentsService, err := payments.NewService(payments.Deps{
		Repo:    payments.NewRepository(gormDB),
		Tx:      dbClient,
		Orders:  ordersRepo,
		Status:  ordersService,
		Catalog: catalogRepo,
		Outbox:  publisher,
		Gateway: payments.NewSimulatedGateway(),
		Metrics: metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:       catalogService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Payments:      paymentsService,
		Notifications: notificationsService,
	}, nil
}
