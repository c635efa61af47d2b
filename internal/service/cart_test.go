package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddTwiceMergesLines(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "alice")
	p := e.product(t, "Book", "7.50")

	_, err := e.cart.AddToCart(e.ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	item, err := e.cart.AddToCart(e.ctx, u.ID, p.ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, item.Quantity)

	sum, err := e.cart.GetCart(e.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sum.Items, 1)
	assert.Equal(t, 1, sum.Count)
	assert.True(t, dec("37.50").Equal(sum.Total), sum.Total.String())

	total, err := e.cart.Total(e.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, dec("37.5").Equal(total))
}

func TestCart_Validation(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "alice")
	p := e.product(t, "Book", "1")

	_, err := e.cart.AddToCart(e.ctx, u.ID, p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.cart.AddToCart(e.ctx, u.ID, 0, 1)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.cart.AddToCart(e.ctx, u.ID, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, e.cart.RemoveFromCart(e.ctx, u.ID, p.ID), ErrNotFound)
	_, _, err = e.cart.UpdateQuantity(e.ctx, u.ID, 12345, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCart_UpdateToZeroRemoves(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "alice")
	p := e.product(t, "Book", "1")

	item, err := e.cart.AddToCart(e.ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	deleted, updated, err := e.cart.UpdateQuantity(e.ctx, u.ID, item.ID, 3)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.EqualValues(t, 3, updated.Quantity)

	deleted, _, err = e.cart.UpdateQuantity(e.ctx, u.ID, item.ID, -1)
	require.NoError(t, err)
	assert.True(t, deleted)

	ok, err := e.cart.Contains(e.ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCart_ClearEmitsEvent(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "alice")
	p := e.product(t, "Book", "1")
	_, err := e.cart.AddToCart(e.ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, e.cart.ClearCart(e.ctx, u.ID))
	n, err := e.cart.Count(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"cart_cleared"}, e.events.Types("cart_events"))
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	w := &WishlistService{Repo: e.repo}
	u := e.user(t, "alice")
	p := e.product(t, "Book", "1")

	first, created, err := w.Add(e.ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := w.Add(e.ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	items, err := w.List(e.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)

	require.NoError(t, w.Remove(e.ctx, u.ID, p.ID))
	assert.ErrorIs(t, w.Remove(e.ctx, u.ID, p.ID), ErrNotFound)

	_, _, err = w.Add(e.ctx, u.ID, 777)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Clear(e.ctx, u.ID))
	n, err := w.Count(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
