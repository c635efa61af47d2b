package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return &GormRepo{DB: gdb}
}

func seedUser(t *testing.T, r *GormRepo, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, r *GormRepo, name, price string) *models.Product {
	t.Helper()
	p, err := r.CreateProduct(context.Background(), &models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: 10,
	})
	require.NoError(t, err)
	return p
}

func TestAddToCart_MergesSameProduct(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "Go in Action", "20.00")

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 2}))
	item := &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 3}
	require.NoError(t, r.AddToCart(ctx, item))
	assert.EqualValues(t, 5, item.Quantity)

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 5, items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.True(t, decimal.NewFromInt(100).Equal(items[0].Subtotal()))

	n, err := r.CountCart(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	r := newTestRepo(t)
	u := seedUser(t, r, "alice")

	err := r.AddToCart(context.Background(), &models.CartItem{UserID: u.ID, ProductID: 999, Quantity: 1})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddToCart_ConcurrentAddsMerge(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "Book", "10")

	const adds = 8
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, adds, items[0].Quantity)
}

func TestAddToCart_KeepsOriginalLine(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "Book", "10")

	first := &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1, AddedAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, r.AddToCart(ctx, first))

	second := &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 2}
	require.NoError(t, r.AddToCart(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 3, second.Quantity)
	assert.WithinDuration(t, first.AddedAt, second.AddedAt, time.Second)
	require.NotNil(t, second.Product)
	assert.Equal(t, "Book", second.Product.Name)
}

func TestUpdateCartQuantity(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	other := seedUser(t, r, "bob")
	p := seedProduct(t, r, "Book", "10")

	item := &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}
	require.NoError(t, r.AddToCart(ctx, item))

	deleted, got, err := r.UpdateCartQuantity(ctx, u.ID, item.ID, 4)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.EqualValues(t, 4, got.Quantity)

	_, _, err = r.UpdateCartQuantity(ctx, other.ID, item.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "line of another user")

	deleted, _, err = r.UpdateCartQuantity(ctx, u.ID, item.ID, 0)
	require.NoError(t, err)
	assert.True(t, deleted)

	ok, err := r.CartContains(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveAndClearCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p1 := seedProduct(t, r, "A", "1")
	p2 := seedProduct(t, r, "B", "2")

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p1.ID, Quantity: 1}))
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p2.ID, Quantity: 1}))

	require.NoError(t, r.RemoveFromCart(ctx, u.ID, p1.ID))
	assert.ErrorIs(t, r.RemoveFromCart(ctx, u.ID, p1.ID), gorm.ErrRecordNotFound)

	require.NoError(t, r.ClearCart(ctx, u.ID))
	n, err := r.CountCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWishlist(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "A", "1")

	first := &models.WishlistItem{UserID: u.ID, ProductID: p.ID}
	created, err := r.AddToWishlist(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	again := &models.WishlistItem{UserID: u.ID, ProductID: p.ID}
	created, err = r.AddToWishlist(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	n, err := r.CountWishlist(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, r.RemoveFromWishlist(ctx, u.ID, p.ID))
	assert.ErrorIs(t, r.RemoveFromWishlist(ctx, u.ID, p.ID), gorm.ErrRecordNotFound)
}

func TestAddToWishlist_ConcurrentAddsCreateOnce(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "A", "1")

	const adds = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[uint]bool{}
	)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := &models.WishlistItem{UserID: u.ID, ProductID: p.ID}
			ok, err := r.AddToWishlist(ctx, item)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[item.ID] = true
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	n, err := r.CountWishlist(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func newOrder(userID uint, date time.Time, total string, status models.OrderStatus, items ...models.OrderItem) *models.Order {
	return &models.Order{
		UserID:      userID,
		OrderDate:   date,
		TotalAmount: decimal.RequireFromString(total),
		Status:      status,
		Items:       items,
	}
}

func TestCreateOrder_PersistsItems(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p1 := seedProduct(t, r, "A", "10")
	p2 := seedProduct(t, r, "B", "15")

	o, err := r.CreateOrder(ctx, newOrder(u.ID, time.Now(), "50", models.StatusPending,
		models.OrderItem{ProductID: p1.ID, Quantity: 2, Price: p1.Price},
		models.OrderItem{ProductID: p2.ID, Quantity: 2, Price: p2.Price},
	))
	require.NoError(t, err)
	require.NotZero(t, o.ID)

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		require.NotNil(t, it.Product)
		assert.Equal(t, o.ID, it.OrderID)
	}
	assert.True(t, decimal.NewFromInt(50).Equal(got.TotalAmount))
}

func TestCreateOrder_RollsBackOnItemFailure(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")

	_, err := r.CreateOrder(ctx, newOrder(u.ID, time.Now(), "5", models.StatusPending,
		models.OrderItem{ProductID: 4242, Quantity: 1, Price: decimal.NewFromInt(5)},
	))
	require.Error(t, err)

	orders, err := r.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders, "order row must not survive without its items")
}

func TestListOrders_NewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	v := seedUser(t, r, "bob")
	p := seedProduct(t, r, "A", "10")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, uid := range []uint{u.ID, v.ID, u.ID} {
		_, err := r.CreateOrder(ctx, newOrder(uid, base.Add(time.Duration(i)*time.Hour), "10", models.StatusPending,
			models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price}))
		require.NoError(t, err)
	}

	all, err := r.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].OrderDate.After(all[i-1].OrderDate))
	}
	require.Len(t, all[0].Items, 1)
	assert.NotNil(t, all[0].Items[0].Product)

	mine, err := r.ListOrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].OrderDate.After(mine[1].OrderDate))
}

func TestUpdateOrderStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "A", "10")

	o, err := r.CreateOrder(ctx, newOrder(u.ID, time.Now(), "10", models.StatusPending,
		models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price}))
	require.NoError(t, err)

	got, from, err := r.UpdateOrderStatus(ctx, o.ID, models.StatusShipped, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, from)
	assert.Equal(t, models.StatusShipped, got.Status)

	veto := errors.New("no")
	_, _, err = r.UpdateOrderStatus(ctx, o.ID, models.StatusPending, func(models.OrderStatus) error { return veto })
	assert.ErrorIs(t, err, veto)

	again, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, again.Status)

	_, _, err = r.UpdateOrderStatus(ctx, 999, models.StatusShipped, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderTotalsAndCounts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "A", "10")

	for _, o := range []struct {
		total  string
		status models.OrderStatus
	}{{"100.00", models.StatusDelivered}, {"50.00", models.StatusProcessing}, {"12.50", models.StatusDelivered}} {
		_, err := r.CreateOrder(ctx, newOrder(u.ID, time.Now(), o.total, o.status,
			models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price}))
		require.NoError(t, err)
	}

	totals, err := r.OrderTotals(ctx, models.StatusDelivered, 0)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, v := range totals {
		sum = sum.Add(v)
	}
	assert.True(t, decimal.RequireFromString("112.50").Equal(sum), sum.String())

	counts, err := r.CountOrdersByStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[models.StatusDelivered])
	assert.EqualValues(t, 1, counts[models.StatusProcessing])
	assert.Zero(t, counts[models.StatusShipped])
}

func TestDeleteOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "A", "10")

	o, err := r.CreateOrder(ctx, newOrder(u.ID, time.Now(), "10", models.StatusPending,
		models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price}))
	require.NoError(t, err)

	require.NoError(t, r.DeleteOrder(ctx, o.ID))
	assert.ErrorIs(t, r.DeleteOrder(ctx, o.ID), gorm.ErrRecordNotFound)

	var n int64
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Where("order_id = ?", o.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeleteProductCascade(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "Doomed", "10")
	keep := seedProduct(t, r, "Keeper", "5")

	_, err := r.CreateOrder(ctx, newOrder(u.ID, time.Now(), "15", models.StatusDelivered,
		models.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price},
		models.OrderItem{ProductID: keep.ID, Quantity: 1, Price: keep.Price},
	))
	require.NoError(t, err)
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}))
	_, err = r.AddToWishlist(ctx, &models.WishlistItem{UserID: u.ID, ProductID: p.ID})
	require.NoError(t, err)

	require.NoError(t, r.DeleteProductCascade(ctx, p.ID))

	for _, m := range []any{&models.OrderItem{}, &models.CartItem{}, &models.WishlistItem{}} {
		var n int64
		require.NoError(t, r.DB.Model(m).Where("product_id = ?", p.ID).Count(&n).Error)
		assert.Zero(t, n, fmt.Sprintf("%T", m))
	}
	_, err = r.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var kept int64
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Where("product_id = ?", keep.ID).Count(&kept).Error)
	assert.EqualValues(t, 1, kept)

	assert.ErrorIs(t, r.DeleteProductCascade(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestDeleteProduct_ForeignKeyBlocksPlainDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	p := seedProduct(t, r, "A", "10")
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}))

	err := r.DB.Delete(&models.Product{}, p.ID).Error
	require.Error(t, err, "a referenced product cannot be removed without cleaning dependents first")

	_, err = r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
}

func TestSearchProducts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedProduct(t, r, "The Go Programming Language", "40")
	seedProduct(t, r, "Clean Code", "30")
	seedProduct(t, r, "Concurrency in Go", "35")

	total, items, err := r.SearchProducts(ctx, "go", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	total, items, err = r.SearchProducts(ctx, "GO", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 1)
}

func TestPatchProduct(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "A", "10")

	name := "B"
	price := decimal.RequireFromString("12.34")
	got, err := r.PatchProduct(ctx, p.ID, ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, 10, got.Stock)

	_, err = r.PatchProduct(ctx, 999, ProductPatch{Name: &name})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsers(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")

	ok, err := r.EmailExists(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	require.Error(t, r.CreateUser(ctx, &models.User{Username: "alice", Email: "x@y.z", PasswordHash: "x"}))

	require.NoError(t, r.UpdateShipping(ctx, u.ID, ShippingInfo{City: "Pune", Pincode: "411001"}))
	got, err := r.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.City)
	assert.Equal(t, "411001", got.Pincode)

	byEmail, err := r.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}
