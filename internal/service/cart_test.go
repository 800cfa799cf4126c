package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/lib/logger/handlers/slogdiscard"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_Add(t *testing.T) {
	carts := newFakeCartRepo()
	products := newFakeProductRepo(&models.Product{ID: 1, Name: "A", Price: decimal.RequireFromString("10.00"), Stock: 1})
	svc := service.NewCartService(slogdiscard.NewDiscardLogger(), carts, products)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, 1, 1, 2))
	require.NoError(t, svc.Add(ctx, 1, 1, 3))
	// количество складывается, остаток проверяется только при оформлении
	assert.Equal(t, 5, carts.lines[1][1])

	assert.ErrorIs(t, svc.Add(ctx, 1, 1, 0), service.ErrValidation)
	assert.ErrorIs(t, svc.Add(ctx, 1, 1, -1), service.ErrValidation)
	assert.ErrorIs(t, svc.Add(ctx, 1, 1, models.MaxCartQuantity+1), service.ErrValidation)
	assert.ErrorIs(t, svc.Add(ctx, 1, 99, 1), storage.ErrProductNotFound)
}

func TestCartService_Update(t *testing.T) {
	carts := newFakeCartRepo()
	svc := service.NewCartService(slogdiscard.NewDiscardLogger(), carts, newFakeProductRepo())
	ctx := context.Background()
	require.NoError(t, carts.AddItem(ctx, 1, 1, 2))

	require.NoError(t, svc.Update(ctx, 1, 1, 4))
	assert.Equal(t, 4, carts.lines[1][1])

	require.NoError(t, svc.Update(ctx, 1, 1, 0))
	_, ok := carts.lines[1][1]
	assert.False(t, ok, "zero quantity removes the line")

	assert.ErrorIs(t, svc.Update(ctx, 1, 1, 3), storage.ErrCartItemNotFound)
	assert.ErrorIs(t, svc.Update(ctx, 1, 1, -2), service.ErrValidation)
	assert.ErrorIs(t, svc.Update(ctx, 1, 1, models.MaxCartQuantity+1), service.ErrValidation)
}

func TestCartService_Remove(t *testing.T) {
	carts := newFakeCartRepo()
	svc := service.NewCartService(slogdiscard.NewDiscardLogger(), carts, newFakeProductRepo())
	ctx := context.Background()
	require.NoError(t, carts.AddItem(ctx, 1, 1, 2))

	require.NoError(t, svc.Remove(ctx, 1, 1))
	assert.ErrorIs(t, svc.Remove(ctx, 1, 1), storage.ErrCartItemNotFound)
}

func TestCartService_View(t *testing.T) {
	carts := newFakeCartRepo()
	carts.items[1] = []*models.CartItem{
		{ProductID: 1, Name: "A", Price: decimal.RequireFromString("10.00"), Quantity: 2, Subtotal: decimal.RequireFromString("20.00")},
		{ProductID: 2, Name: "B", Price: decimal.RequireFromString("5.00"), Quantity: 1, Subtotal: decimal.RequireFromString("5.00")},
	}
	svc := service.NewCartService(slogdiscard.NewDiscardLogger(), carts, newFakeProductRepo())

	view, err := svc.View(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, 3, view.Count)

	empty, err := svc.View(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.True(t, empty.Total.IsZero())
}

func TestCatalogService_List(t *testing.T) {
	var products []*models.Product
	for i := int64(1); i <= 30; i++ {
		products = append(products, &models.Product{ID: i})
	}
	svc := service.NewCatalogService(slogdiscard.NewDiscardLogger(), newFakeProductRepo(products...))
	ctx := context.Background()

	page, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, service.DefaultPageSize)

	page, err = svc.List(ctx, 3, 12)
	require.NoError(t, err)
	assert.Len(t, page, 6)
	assert.Equal(t, int64(25), page[0].ID)

	page, err = svc.List(ctx, 10, 12)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	// огромный номер страницы не переполняет смещение
	page, err = svc.List(ctx, math.MaxInt, service.MaxPageSize)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestCatalogService_SearchAndGet(t *testing.T) {
	svc := service.NewCatalogService(slogdiscard.NewDiscardLogger(), newFakeProductRepo(&models.Product{ID: 1, Name: "Mug"}))
	ctx := context.Background()

	found, err := svc.Search(ctx, "  Mug ")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, found)

	p, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)

	_, err = svc.Get(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
}

func TestWishlistService(t *testing.T) {
	wishlist := newFakeWishlistRepo()
	svc := service.NewWishlistService(slogdiscard.NewDiscardLogger(), wishlist, newFakeProductRepo(&models.Product{ID: 1, Name: "Mug"}))
	ctx := context.Background()

	id, err := svc.Add(ctx, 1, 1)
	require.NoError(t, err)

	_, err = svc.Add(ctx, 1, 1)
	assert.ErrorIs(t, err, storage.ErrAlreadyInWishlist)

	_, err = svc.Add(ctx, 1, 2)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)

	// чужую запись удалить нельзя
	assert.ErrorIs(t, svc.Remove(ctx, 2, id), storage.ErrWishlistItemNotFound)
	require.NoError(t, svc.Remove(ctx, 1, id))
}
