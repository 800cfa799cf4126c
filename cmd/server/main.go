package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/linemk/storefront/internal/app"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/events"
	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/linemk/storefront/internal/lib/metrics"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env не обязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", logger.Err(err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(application.DB, "storefront"))
	m := metrics.New(reg)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(log, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("order events enabled", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("failed to close publisher", logger.Err(err))
		}
	}()

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	adminRepo := storage.NewAdminRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	wishlistRepo := storage.NewWishlistRepository(application.DB)

	checkoutOpts := service.CheckoutOptions{
		LockTimeout: cfg.Checkout.LockTimeout,
		TxTimeout:   cfg.Checkout.TxTimeout,
	}
	tokenTTL := time.Duration(cfg.JWT.TokenTTL) * time.Minute

	services := app.Services{
		Auth:     service.NewAuthService(log, userRepo, adminRepo, cfg.JWT.Secret, tokenTTL),
		Catalog:  service.NewCatalogService(log, productRepo),
		Cart:     service.NewCartService(log, cartRepo, productRepo),
		Checkout: service.NewCheckoutService(log, application.DB, cartRepo, productRepo, orderRepo, publisher, m, checkoutOpts),
		Account:  service.NewAccountService(log, userRepo, orderRepo, wishlistRepo),
		Wishlist: service.NewWishlistService(log, wishlistRepo, productRepo),
		Admin:    service.NewAdminService(log, application.DB, orderRepo, productRepo, publisher, checkoutOpts),
	}

	router := app.NewRouter(log, cfg, services, m, application.DB.PingContext)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.Checkout.TxTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", logger.Err(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	// незавершённые транзакции оформления успевают закончиться до закрытия пула
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Checkout.TxTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.Err(err))
	}
	log.Info("server gracefully stopped")
}
