package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/storefront/internal/app/handlers"
	"github.com/linemk/storefront/internal/config"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/linemk/storefront/internal/lib/logger/handlers/urllog"
	"github.com/linemk/storefront/internal/lib/metrics"
	"github.com/linemk/storefront/internal/lib/ratelimit"
	"github.com/linemk/storefront/internal/service"
)

// Services - всё, что нужно HTTP-слою
type Services struct {
	Auth     service.AuthServiceInterface
	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService
	Account  service.AccountService
	Wishlist service.WishlistService
	Admin    service.AdminService
}

// PingFunc проверяет доступность БД для /health
type PingFunc func(ctx context.Context) error

// NewRouter регистрирует маршруты магазина и бэк-офиса
func NewRouter(log *slog.Logger, cfg *config.Config, svc Services, m *metrics.Metrics, ping PingFunc) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	if m != nil {
		router.Use(m.Middleware)
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	router.Get("/health", healthHandler(log, ping))

	// вход и оформление заказа ограничены по адресу клиента, лимитеры у них раздельные
	authLimit := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TTL)
	checkoutLimit := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TTL)

	router.Group(func(r chi.Router) {
		r.Use(authLimit.Middleware)
		r.Post("/api/auth/register", handlers.RegisterHandler(log, svc.Auth))
		r.Post("/api/auth/login", handlers.AuthHandler(log, svc.Auth))
		r.Post("/api/admin/login", handlers.AdminAuthHandler(log, svc.Auth))
	})

	// каталог доступен без авторизации
	router.Get("/api/products", handlers.ListProductsHandler(log, svc.Catalog))
	router.Get("/api/products/search", handlers.SearchProductsHandler(log, svc.Catalog))
	router.Get("/api/products/{id}", handlers.GetProductHandler(log, svc.Catalog))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret, security.RoleUser))

		r.Get("/api/cart", handlers.GetCartHandler(log, svc.Cart))
		r.Post("/api/cart/items", handlers.AddCartItemHandler(log, svc.Cart))
		r.Put("/api/cart/items/{productID}", handlers.UpdateCartItemHandler(log, svc.Cart))
		r.Delete("/api/cart/items/{productID}", handlers.RemoveCartItemHandler(log, svc.Cart))

		r.Get("/api/checkout", handlers.CheckoutPreviewHandler(log, svc.Checkout))
		r.With(checkoutLimit.Middleware).Post("/api/checkout", handlers.CheckoutHandler(log, svc.Checkout))

		r.Get("/api/account", handlers.AccountHandler(log, svc.Account))
		r.Get("/api/account/orders/{id}", handlers.AccountOrderHandler(log, svc.Account))

		r.Post("/api/wishlist", handlers.AddWishlistHandler(log, svc.Wishlist))
		r.Delete("/api/wishlist/{id}", handlers.RemoveWishlistHandler(log, svc.Wishlist))
	})

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret, security.RoleAdmin))

		r.Get("/api/admin/dashboard", handlers.DashboardHandler(log, svc.Admin))
		r.Get("/api/admin/orders", handlers.AdminOrdersHandler(log, svc.Admin))
		r.Get("/api/admin/orders/{id}", handlers.AdminOrderHandler(log, svc.Admin))
		r.Put("/api/admin/orders/{id}/status", handlers.UpdateOrderStatusHandler(log, svc.Admin))
	})

	return router
}

func healthHandler(log *slog.Logger, ping PingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Error("health check failed", logger.Err(err))
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
