package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	analyticsapp "github.com/dmehra2102/ecobazaar/internal/analytics/application"
	analyticshttp "github.com/dmehra2102/ecobazaar/internal/analytics/infrastructure/http"
	analyticskafka "github.com/dmehra2102/ecobazaar/internal/analytics/infrastructure/kafka"
	auditpg "github.com/dmehra2102/ecobazaar/internal/audit/infrastructure/postgres"
	cartapp "github.com/dmehra2102/ecobazaar/internal/cart/application"
	carthttp "github.com/dmehra2102/ecobazaar/internal/cart/infrastructure/http"
	cartpg "github.com/dmehra2102/ecobazaar/internal/cart/infrastructure/postgres"
	cartredis "github.com/dmehra2102/ecobazaar/internal/cart/infrastructure/redis"
	catalogpg "github.com/dmehra2102/ecobazaar/internal/catalog/infrastructure/postgres"
	"github.com/dmehra2102/ecobazaar/internal/config"
	identityapp "github.com/dmehra2102/ecobazaar/internal/identity/application"
	"github.com/dmehra2102/ecobazaar/internal/identity/infrastructure/crypto"
	identityhttp "github.com/dmehra2102/ecobazaar/internal/identity/infrastructure/http"
	identitypg "github.com/dmehra2102/ecobazaar/internal/identity/infrastructure/postgres"
	orderapp "github.com/dmehra2102/ecobazaar/internal/order/application"
	orderhttp "github.com/dmehra2102/ecobazaar/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/ecobazaar/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/ecobazaar/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/ecobazaar/pkg/database"
	"github.com/dmehra2102/ecobazaar/pkg/grpcx"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
	"github.com/dmehra2102/ecobazaar/pkg/idempotency"
	"github.com/dmehra2102/ecobazaar/pkg/logging"
	"github.com/dmehra2102/ecobazaar/pkg/metrics"
	"github.com/dmehra2102/ecobazaar/pkg/outbox"
	"github.com/dmehra2102/ecobazaar/pkg/shutdown"
	"github.com/dmehra2102/ecobazaar/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("ecobazaar-api stopped", "err", err)
		os.Exit(1)
	}
	log.Info("ecobazaar-api shutdown complete")
}

func run(ctx context.Context, log *slog.Logger, cfg config.Config) error {
	tp, err := tracing.Init(ctx, "ecobazaar-api", cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Postgres
	if err := database.Migrate(log, cfg.PGURL); err != nil {
		return err
	}
	pool, err := database.Connect(ctx, cfg.PGURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Redis backs the cart row cache, checkout idempotency and consumer dedupe. All degrade
	// per request when it is down, so startup does not wait for it.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed", "addr", cfg.RedisAddr, "err", err)
	}

	writer := orderkafka.NewWriter(log, cfg.KafkaBrokers)
	defer writer.Close()

	m := metrics.New()

	// Repositories
	users := identitypg.NewRepository(log, pool)
	products := catalogpg.NewRepository(log, pool)
	audit := auditpg.NewRepository(log, pool)
	carts := cartpg.NewRepository(log, pool)
	orders := orderpg.NewRepository(log, pool)

	// Services
	identitySvc := identityapp.NewService(log, users, crypto.NewBcryptHasher(bcrypt.DefaultCost), audit)
	created, err := identitySvc.EnsureAdmin(ctx, identityapp.AdminSeed{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		FullName: cfg.Admin.FullName,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin account created", "email", cfg.Admin.Email)
	}
	cartSvc := cartapp.NewService(log, carts, products, cartredis.NewCache(rdb, cfg.CartCacheTTL, cfg.CartCacheTTL/4), m)
	orderSvc := orderapp.NewService(log, orders, cartSvc, m)
	analyticsSvc := analyticsapp.NewService(log, orders, products, users, audit, cfg.Scoring, m)

	// Outbox relay
	store := orderpg.NewOutboxStore(log, pool, cfg.OutboxRetries)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, store, dispatch, "ecobazaar-relay-"+uuid.NewString(), outbox.RelayConfig{}, m.OutboxDispatched)

	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	consumer := analyticskafka.NewConsumer(log,
		analyticskafka.NewReader(cfg.KafkaBrokers, cfg.OutboxTopic, cfg.ConsumerGroup),
		m, idem)

	analytics := analyticshttp.NewHandler(log, analyticsSvc)
	r := chi.NewRouter()
	r.Use(
		logging.RequestID,
		logging.Middleware(log),
		m.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{logging.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           3600,
		}),
	)
	r.Get("/healthz", health(pool))
	r.Handle("/metrics", m.Handler())
	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", identityhttp.NewHandler(log, identitySvc).Routes())
		api.Mount("/cart", carthttp.NewHandler(log, cartSvc).Routes())
		api.Mount("/orders", orderhttp.NewHandler(log, orderSvc, idem).Routes())
		api.Mount("/carbon", analytics.CarbonRoutes())
		api.Mount("/dashboard", analytics.DashboardRoutes())
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(r, "ecobazaar-api"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	grpcSrv := grpcx.NewServer(log, pool.Ping, 5*time.Second, "ecobazaar.api")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return grpcSrv.Run(gctx, cfg.GRPCAddr) })
	g.Go(func() error { return shutdown.Serve(gctx, log, srv, 10*time.Second) })
	return g.Wait()
}

func health(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
