package service_test

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/lib/logger/handlers/slogdiscard"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "testsecret"

type fakeUserRepo struct {
	users map[string]*models.User // ключ — email
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrUserExists
	}
	user.ID = int64(len(f.users) + 1)
	user.CreatedAt = time.Now()
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

type fakeAdminRepo struct {
	admins map[string]*models.Admin
}

var _ storage.AdminStorage = (*fakeAdminRepo)(nil)

func (f *fakeAdminRepo) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	a, ok := f.admins[email]
	if !ok {
		return nil, storage.ErrAdminNotFound
	}
	return a, nil
}

func (f *fakeAdminRepo) UpsertAdmin(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	admin.ID = int64(len(f.admins) + 1)
	f.admins[admin.Email] = admin
	return admin, nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
	restocks map[int64]int
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: make(map[int64]*models.Product), restocks: make(map[int64]int)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	ids := make([]int64, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*models.Product
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeProductRepo) SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		if p.Name == query {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) LockProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*models.Product, error) {
	out := make(map[int64]*models.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeProductRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) error {
	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return storage.ErrStockConflict
	}
	p.Stock -= quantity
	return nil
}

func (f *fakeProductRepo) RestockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) (bool, error) {
	p, ok := f.products[id]
	if !ok {
		return false, nil
	}
	p.Stock += quantity
	f.restocks[id] += quantity
	return true, nil
}

type fakeCartRepo struct {
	lines map[int64]map[int64]int // userID -> productID -> quantity
	items map[int64][]*models.CartItem
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{lines: make(map[int64]map[int64]int), items: make(map[int64][]*models.CartItem)}
}

func (f *fakeCartRepo) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	if f.lines[userID] == nil {
		f.lines[userID] = make(map[int64]int)
	}
	f.lines[userID][productID] += quantity
	return nil
}

func (f *fakeCartRepo) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if _, ok := f.lines[userID][productID]; !ok {
		return storage.ErrCartItemNotFound
	}
	f.lines[userID][productID] = quantity
	return nil
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, userID, productID int64) error {
	if _, ok := f.lines[userID][productID]; !ok {
		return storage.ErrCartItemNotFound
	}
	delete(f.lines[userID], productID)
	return nil
}

func (f *fakeCartRepo) ListCart(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	return f.items[userID], nil
}

func (f *fakeCartRepo) CartLinesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	var out []models.CartLine
	for productID, qty := range f.lines[userID] {
		out = append(out, models.CartLine{UserID: userID, ProductID: productID, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (f *fakeCartRepo) ClearCartTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	out, _ := f.CartLinesTx(ctx, tx, userID)
	delete(f.lines, userID)
	return out, nil
}

type fakeOrderRepo struct {
	orders  map[int64]*models.Order
	lines   map[int64][]*models.OrderLine
	history map[int64][]models.StatusChange
	stats   *models.DashboardStats
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[int64]*models.Order),
		lines:   make(map[int64][]*models.OrderLine),
		history: make(map[int64][]models.StatusChange),
		stats:   &models.DashboardStats{},
	}
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	order.ID = int64(len(f.orders) + 1)
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) CreateOrderLinesTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []models.OrderLine) error {
	for _, l := range lines {
		l.OrderID = orderID
		f.lines[orderID] = append(f.lines[orderID], &l)
	}
	return nil
}

func (f *fakeOrderRepo) AddStatusHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus) error {
	f.history[orderID] = append(f.history[orderID], models.StatusChange{Status: status, CreatedAt: time.Now()})
	return nil
}

func (f *fakeOrderRepo) LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) OrderLinesTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]*models.OrderLine, error) {
	return f.lines[orderID], nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOrderRepo) GetOrderForUser(ctx context.Context, id, userID int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.UserID != userID {
		return nil, storage.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	return f.lines[orderID], nil
}

func (f *fakeOrderRepo) GetStatusHistory(ctx context.Context, orderID int64) ([]models.StatusChange, error) {
	return f.history[orderID], nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrderRepo) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return f.stats, nil
}

type fakeWishlistRepo struct {
	items map[int64]*models.WishlistItem
	owner map[int64]int64
}

var _ storage.WishlistStorage = (*fakeWishlistRepo)(nil)

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{items: make(map[int64]*models.WishlistItem), owner: make(map[int64]int64)}
}

func (f *fakeWishlistRepo) Add(ctx context.Context, userID, productID int64) (int64, error) {
	for id, item := range f.items {
		if f.owner[id] == userID && item.Product.ID == productID {
			return 0, storage.ErrAlreadyInWishlist
		}
	}
	id := int64(len(f.items) + 1)
	f.items[id] = &models.WishlistItem{ID: id, Product: models.Product{ID: productID}, CreatedAt: time.Now()}
	f.owner[id] = userID
	return id, nil
}

func (f *fakeWishlistRepo) Remove(ctx context.Context, id, userID int64) error {
	if owner, ok := f.owner[id]; !ok || owner != userID {
		return storage.ErrWishlistItemNotFound
	}
	delete(f.items, id)
	delete(f.owner, id)
	return nil
}

func (f *fakeWishlistRepo) ListByUser(ctx context.Context, userID int64) ([]*models.WishlistItem, error) {
	var out []*models.WishlistItem
	for id, item := range f.items {
		if f.owner[id] == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeWishlistRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	items, _ := f.ListByUser(ctx, userID)
	return len(items), nil
}

func newAuthService(users *fakeUserRepo, admins *fakeAdminRepo) *service.AuthService {
	return service.NewAuthService(slogdiscard.NewDiscardLogger(), users, admins, testSecret, 60*time.Minute)
}

func parseRole(t *testing.T, token string) string {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	role, _ := claims["role"].(string)
	return role
}

func TestAuthService_Register(t *testing.T) {
	users := newFakeUserRepo()
	authSvc := newAuthService(users, &fakeAdminRepo{admins: map[string]*models.Admin{}})
	ctx := context.Background()

	user, err := authSvc.Register(ctx, " Alice ", "Alice@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	// пароль хранится только в виде хэша
	assert.NotEqual(t, "password123", string(user.PassHash))
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PassHash, []byte("password123")))

	_, err = authSvc.Register(ctx, "Alice", "alice@example.com", "password123")
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestAuthService_Login_ExistingUser_CorrectPassword(t *testing.T) {
	users := newFakeUserRepo()
	authSvc := newAuthService(users, &fakeAdminRepo{admins: map[string]*models.Admin{}})
	ctx := context.Background()

	_, err := authSvc.Register(ctx, "Bob", "existing@example.com", "password123")
	require.NoError(t, err)

	token, err := authSvc.Login(ctx, "existing@example.com", "password123")
	assert.NoError(t, err, "Login should succeed with correct password")
	assert.NotEmpty(t, token, "Token should be returned")
	assert.Equal(t, string(security.RoleUser), parseRole(t, token))
}

func TestAuthService_Login_ExistingUser_WrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	authSvc := newAuthService(users, &fakeAdminRepo{admins: map[string]*models.Admin{}})
	ctx := context.Background()

	_, err := authSvc.Register(ctx, "Bob", "existing@example.com", "password123")
	require.NoError(t, err)

	token, err := authSvc.Login(ctx, "existing@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Empty(t, token, "Token should be empty on failed login")
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	authSvc := newAuthService(newFakeUserRepo(), &fakeAdminRepo{admins: map[string]*models.Admin{}})

	_, err := authSvc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_AdminLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	admins := &fakeAdminRepo{admins: map[string]*models.Admin{
		"admin@example.com": {ID: 1, Name: "Admin", Email: "admin@example.com", PassHash: hashed},
	}}
	authSvc := newAuthService(newFakeUserRepo(), admins)
	ctx := context.Background()

	token, err := authSvc.AdminLogin(ctx, "admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, string(security.RoleAdmin), parseRole(t, token))

	_, err = authSvc.AdminLogin(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	// покупатель не может войти в бэк-офис
	_, err = authSvc.AdminLogin(ctx, "user@example.com", "adminpass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAccountService_GetAccount_Success(t *testing.T) {
	users := newFakeUserRepo()
	orders := newFakeOrderRepo()
	wishlist := newFakeWishlistRepo()
	ctx := context.Background()

	user, err := users.CreateUser(ctx, &models.User{Name: "Test", Email: "test@example.com", PassHash: []byte("hashed")})
	require.NoError(t, err)

	for _, total := range []string{"10.00", "25.50"} {
		require.NoError(t, orders.CreateOrderTx(ctx, nil, &models.Order{
			UserID:      user.ID,
			TotalAmount: decimal.RequireFromString(total),
			Status:      models.OrderStatusCompleted,
		}))
	}
	// заказ другого пользователя не попадает в кабинет
	require.NoError(t, orders.CreateOrderTx(ctx, nil, &models.Order{UserID: user.ID + 1, Status: models.OrderStatusCompleted}))

	_, err = wishlist.Add(ctx, user.ID, 3)
	require.NoError(t, err)

	accountSvc := service.NewAccountService(slogdiscard.NewDiscardLogger(), users, orders, wishlist)
	account, err := accountSvc.GetAccount(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.Email, account.User.Email)
	require.Len(t, account.Orders, 2)
	// новые заказы первыми
	assert.True(t, account.Orders[0].TotalAmount.Equal(decimal.RequireFromString("25.50")))
	assert.Equal(t, 1, account.WishlistCount)
	assert.Len(t, account.Wishlist, 1)
}

func TestAccountService_GetAccount_UserNotFound(t *testing.T) {
	accountSvc := service.NewAccountService(slogdiscard.NewDiscardLogger(), newFakeUserRepo(), newFakeOrderRepo(), newFakeWishlistRepo())

	_, err := accountSvc.GetAccount(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestAccountService_GetOrder_Ownership(t *testing.T) {
	orders := newFakeOrderRepo()
	ctx := context.Background()

	order := &models.Order{UserID: 1, Status: models.OrderStatusCompleted}
	require.NoError(t, orders.CreateOrderTx(ctx, nil, order))
	require.NoError(t, orders.CreateOrderLinesTx(ctx, nil, order.ID, []models.OrderLine{
		{ProductID: 1, ProductName: "Mug", Quantity: 2, Price: decimal.RequireFromString("10.00")},
	}))
	require.NoError(t, orders.AddStatusHistoryTx(ctx, nil, order.ID, models.OrderStatusCompleted))

	accountSvc := service.NewAccountService(slogdiscard.NewDiscardLogger(), newFakeUserRepo(), orders, newFakeWishlistRepo())

	details, err := accountSvc.GetOrder(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Len(t, details.Lines, 1)
	assert.Len(t, details.History, 1)

	_, err = accountSvc.GetOrder(ctx, 2, order.ID)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}
