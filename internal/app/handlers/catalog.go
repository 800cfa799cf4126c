package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

type ProductsResponse struct {
	Page     int               `json:"page"`
	Products []*models.Product `json:"products"`
}

// ListProductsHandler – GET /api/products?page=&page_size=
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		page, ok := queryInt(w, r, logger, "page", 1, service.MaxPage)
		if !ok {
			return
		}
		pageSize, ok := queryInt(w, r, logger, "page_size", service.DefaultPageSize, service.MaxPageSize)
		if !ok {
			return
		}

		products, err := catalog.List(r.Context(), page, pageSize)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, ProductsResponse{Page: max(page, 1), Products: products})
	}
}

// SearchProductsHandler – GET /api/products/search?q=
func SearchProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SearchProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, products)
	}
}

// GetProductHandler – GET /api/products/{id}
func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		product, err := catalog.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, product)
	}
}

func queryInt(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string, def, maxValue int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v > maxValue {
		badRequest(w, logger, "invalid "+name)
		return 0, false
	}
	return v, true
}
