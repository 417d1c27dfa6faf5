package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
	"github.com/dmehra2102/ecobazaar/pkg/metrics"
)

type row struct {
	id        int64
	productID int64
	qty       int
}

// memCarts joins the live catalog on every read, like the SQL repository.
type memCarts struct {
	mu      sync.Mutex
	catalog *memCatalog
	rows    []row
	nextID  int64
	gets    atomic.Int32
	// gate, when set, holds reads until it is closed.
	gate chan struct{}
}

func (m *memCarts) Get(_ context.Context, userID int64) (domain.Cart, error) {
	m.gets.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Cart{ID: 7, UserID: userID}
	for _, r := range m.rows {
		c.Items = append(c.Items, domain.CartItem{ID: r.id, Product: m.catalog.product(r.productID), Quantity: r.qty})
	}
	return c, nil
}

func (m *memCarts) item(r row) domain.CartItem {
	return domain.CartItem{ID: r.id, Product: m.catalog.product(r.productID), Quantity: r.qty}
}

func (m *memCarts) SetQuantity(_ context.Context, _ int64, productID int64, q int) (domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.productID == productID {
			m.rows[i].qty = q
			return m.item(m.rows[i]), nil
		}
	}
	m.nextID++
	r := row{id: m.nextID, productID: productID, qty: q}
	m.rows = append(m.rows, r)
	return m.item(r), nil
}

func (m *memCarts) UpdateItem(_ context.Context, _ int64, itemID int64, q int) (domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.id == itemID {
			m.rows[i].qty = q
			return m.item(m.rows[i]), nil
		}
	}
	return domain.CartItem{}, domain.ErrItemNotFound
}

func (m *memCarts) RemoveItem(_ context.Context, _ int64, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.id == itemID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrItemNotFound
}

func (m *memCarts) Clear(context.Context, int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

type memCatalog struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
}

func newCatalog() *memCatalog {
	return &memCatalog{products: map[int64]catalog.Product{
		1: {ID: 1, Name: "Bamboo Brush", Category: "Personal Care", Price: 4, CarbonFootprint: 0.5},
		2: {ID: 2, Name: "Denim Jacket", Category: "Clothing", Price: 60, CarbonFootprint: 12},
	}}
}

func (c *memCatalog) product(id int64) catalog.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id]
}

func (c *memCatalog) update(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *memCatalog) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

func (c *memCatalog) Get(_ context.Context, id int64) (catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[id]; ok {
		return p, nil
	}
	return catalog.Product{}, catalog.ErrProductNotFound
}

func (c *memCatalog) ListByIDs(_ context.Context, ids []int64) ([]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memCache struct {
	mu          sync.Mutex
	versions    map[int64]int64
	entries     map[string]domain.Lines
	invalidated int
	failGet     bool
	// beforeSet runs just before a load stores its rows.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{versions: map[int64]int64{}, entries: map[string]domain.Lines{}}
}

func entry(userID, version int64) string { return fmt.Sprintf("%d:%d", userID, version) }

func (c *memCache) Version(_ context.Context, userID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return 0, errors.New("redis down")
	}
	return c.versions[userID], nil
}

func (c *memCache) Get(_ context.Context, userID, version int64) (domain.Lines, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[entry(userID, version)]
	return l, ok, nil
}

func (c *memCache) Set(_ context.Context, version int64, l domain.Lines) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry(l.UserID, version)] = l
	return nil
}

func (c *memCache) Invalidate(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
	c.invalidated++
	return nil
}

func newTestService() (*Service, *memCarts, *memCache, *metrics.Metrics) {
	cat := newCatalog()
	carts := &memCarts{catalog: cat}
	cache := newMemCache()
	m := metrics.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, carts, cat, cache, m), carts, cache, m
}

func TestAddItem_MergesQuantity(t *testing.T) {
	svc, carts, cache, _ := newTestService()
	ctx := context.Background()

	first, err := svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, 1, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	assert.Len(t, carts.rows, 1)
	assert.Equal(t, 2, cache.invalidated)
}

func TestAddItem_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, 1, 42, 1)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.AddItem(ctx, 1, 1, 98)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, 1, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "merged quantity above the cap")
}

func TestGet_ReadThroughCache(t *testing.T) {
	svc, carts, _, m := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 1, 2, 1)
	require.NoError(t, err)
	loadsBefore := carts.gets.Load()

	c, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	_, err = svc.Get(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, loadsBefore+1, carts.gets.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartCache.WithLabelValues("hit")))
}

func TestGet_CacheFailureFallsBackToStore(t *testing.T) {
	svc, _, cache, m := newTestService()
	cache.failGet = true

	c, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.UserID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartCache.WithLabelValues("error")))
}

func TestView_FiltersAndSummarizesSubset(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, 2, 1)
	require.NoError(t, err)

	v, err := svc.View(ctx, 1, domain.Filter{}, domain.SortPriceDesc)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "Denim Jacket", v.Items[0].Product.Name)
	assert.Equal(t, domain.Summary{TotalItems: 2, TotalAmount: 68, TotalCarbon: 13}, v.Summary)

	v, err = svc.View(ctx, 1, domain.Filter{Category: "Clothing"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{TotalItems: 1, TotalAmount: 60, TotalCarbon: 12}, v.Summary)
}

func TestUpdateRemoveClear(t *testing.T) {
	svc, carts, _, _ := newTestService()
	ctx := context.Background()
	it, err := svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(ctx, 1, it.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = svc.UpdateQuantity(ctx, 1, it.ID, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.UpdateQuantity(ctx, 1, 99, 1)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	require.NoError(t, svc.RemoveItem(ctx, 1, it.ID))
	assert.ErrorIs(t, svc.RemoveItem(ctx, 1, it.ID), domain.ErrItemNotFound)

	_, err = svc.AddItem(ctx, 1, 2, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, 1))
	assert.Empty(t, carts.rows)
}

func TestView_PricesFromLiveCatalogWhileCached(t *testing.T) {
	svc, carts, _, m := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)

	v, err := svc.View(ctx, 1, domain.Filter{}, "")
	require.NoError(t, err)
	assert.Equal(t, 8.0, v.Summary.TotalAmount)

	carts.catalog.update(catalog.Product{ID: 1, Name: "Bamboo Brush", Category: "Personal Care", Price: 9, CarbonFootprint: 3})
	v, err = svc.View(ctx, 1, domain.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 9.0, v.Items[0].Product.Price)
	assert.Equal(t, domain.Summary{TotalItems: 2, TotalAmount: 18, TotalCarbon: 6}, v.Summary)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartCache.WithLabelValues("hit")), "rows still came from the cache")
}

func TestGet_DeletedProductReloadsFromStore(t *testing.T) {
	svc, carts, _, m := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = svc.Get(ctx, 1)
	require.NoError(t, err)

	carts.catalog.remove(1)
	carts.mu.Lock()
	carts.rows = nil
	carts.mu.Unlock()

	c, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartCache.WithLabelValues("stale")))
}

// A load that read the cart before a concurrent write must not leave its
// copy visible once the write has invalidated.
func TestGet_LoadRacingWriteLeavesNoStaleRows(t *testing.T) {
	svc, _, cache, _ := newTestService()
	ctx := context.Background()
	it, err := svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	cache.beforeSet = func() {
		cache.beforeSet = nil
		assert.NoError(t, svc.RemoveItem(ctx, 1, it.ID))
	}
	stale, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stale.Items, 1, "the racing read saw the cart before the write")

	c, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestGet_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	svc, carts, _, _ := newTestService()
	carts.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Get(ctx, 1)
		first <- err
	}()
	require.Eventually(t, func() bool { return carts.gets.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		c, err := svc.Get(context.Background(), 1)
		if err == nil && c.UserID != 1 {
			err = fmt.Errorf("got cart for user %d", c.UserID)
		}
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(carts.gate)
	assert.NoError(t, <-second)
}
