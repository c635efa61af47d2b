package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/events/eventstest"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type testEnv struct {
	ctx      context.Context
	repo     *repo.GormRepo
	events   *eventstest.Recorder
	cart     *CartService
	orders   *OrderService
	checkout *CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	r := &repo.GormRepo{DB: gdb}
	rec := &eventstest.Recorder{}
	cart := &CartService{Repo: r, Events: rec}
	orders := &OrderService{Repo: r, Events: rec}
	return &testEnv{
		ctx:      logging.IntoContext(context.Background(), logging.Discard()),
		repo:     r,
		events:   rec,
		cart:     cart,
		orders:   orders,
		checkout: &CheckoutService{Repo: r, Cart: cart, Orders: orders},
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, e.repo.CreateUser(e.ctx, u))
	return u
}

func (e *testEnv) product(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p, err := e.repo.CreateProduct(e.ctx, &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: 5})
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
