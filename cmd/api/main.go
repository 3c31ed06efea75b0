package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/config"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/customer"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/inventory"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/menu"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/order"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/payment"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/pricing"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/promotion"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/events"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, "restaurant-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		log.Error("migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tx := database.NewTransactor(db)

	var publisher events.Publisher = events.NopPublisher{Log: log}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Error("connect rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// ── Catalog & Pricing ───────────────────────────────────
	promotionService := promotion.NewService(promotion.NewPostgresRepository(db), log)
	promotion.NewHandler(promotionService).RegisterRoutes(router)

	pricingEngine := pricing.NewEngine(cfg.Pricing.TaxRate, promotionService)

	menuService := menu.NewService(menu.NewPostgresRepository(db), publisher, log)
	menu.NewHandler(menuService).RegisterRoutes(router)

	// ── Inventory ───────────────────────────────────────────
	inventoryService := inventory.NewService(inventory.NewPostgresRepository(db), tx, log)
	inventory.NewHandler(inventoryService, cfg.Orders.LowStockThreshold).RegisterRoutes(router)

	// ── Orders ──────────────────────────────────────────────
	orderService := order.NewService(
		order.NewPostgresRepository(db),
		tx,
		menuService,
		inventoryService,
		pricingEngine,
		publisher,
		log,
		order.WithCodeGenerator(order.NewCodeGenerator(cfg.Orders.TrackingCodePrefix)),
	)
	order.NewHandler(orderService).RegisterRoutes(router)

	// ── Payments ────────────────────────────────────────────
	paymentService := payment.NewService(
		payment.NewPostgresRepository(db),
		tx,
		orderService,
		payment.NewSimulatedGateway(cfg.Payment.DeclineAmount),
		publisher,
		log,
	)
	payment.NewHandler(paymentService).RegisterRoutes(router)

	// ── Customers ───────────────────────────────────────────
	customerService := customer.NewService(customer.NewPostgresRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	customer.NewHandler(customerService, orderService).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("restaurant api listening", slog.String("addr", srv.Addr), slog.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", slog.String("error", err.Error()))
	}
}
