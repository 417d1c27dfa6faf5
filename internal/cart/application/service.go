package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	"github.com/dmehra2102/ecobazaar/pkg/metrics"
)

const loadTimeout = 5 * time.Second

type Service struct {
	log      *slog.Logger
	carts    CartRepository
	products ProductGetter
	cache    Cache
	metrics  *metrics.Metrics
	loads    singleflight.Group
}

func NewService(log *slog.Logger, carts CartRepository, products ProductGetter, cache Cache, m *metrics.Metrics) *Service {
	return &Service{log: log, carts: carts, products: products, cache: cache, metrics: m}
}

// View is a filtered and sorted projection of a cart. Summary covers only
// the items that survived the filter.
type View struct {
	CartID  int64
	Items   []domain.CartItem
	Summary domain.Summary
}

// Get returns the cart with every item priced from the live catalog. Only
// the cart rows come from the cache. Cache failures degrade to a direct read.
func (s *Service) Get(ctx context.Context, userID int64) (domain.Cart, error) {
	version, err := s.cache.Version(ctx, userID)
	if err != nil {
		s.log.Warn("cart cache version read failed", "user_id", userID, "err", err)
		s.metrics.CartCache.WithLabelValues("error").Inc()
		return s.carts.Get(ctx, userID)
	}

	lines, ok, err := s.cache.Get(ctx, userID, version)
	switch {
	case err != nil:
		s.log.Warn("cart cache read failed", "user_id", userID, "err", err)
		s.metrics.CartCache.WithLabelValues("error").Inc()
	case ok:
		c, complete, err := s.join(ctx, lines)
		if err != nil {
			return domain.Cart{}, err
		}
		if complete {
			s.metrics.CartCache.WithLabelValues("hit").Inc()
			return c, nil
		}
		// a product was deleted since the rows were cached
		s.metrics.CartCache.WithLabelValues("stale").Inc()
	default:
		s.metrics.CartCache.WithLabelValues("miss").Inc()
	}
	return s.load(ctx, userID, version)
}

func (s *Service) join(ctx context.Context, lines domain.Lines) (domain.Cart, bool, error) {
	var products []catalog.Product
	if ids := lines.ProductIDs(); len(ids) > 0 {
		var err error
		if products, err = s.products.ListByIDs(ctx, ids); err != nil {
			return domain.Cart{}, false, fmt.Errorf("load cart products: %w", err)
		}
	}
	c, ok := lines.Join(catalog.Index(products))
	return c, ok, nil
}

// load shares one database read between concurrent misses on the same
// version. The read outlives a caller that gives up, so the others still
// get a result.
func (s *Service) load(ctx context.Context, userID, version int64) (domain.Cart, error) {
	key := strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(version, 10)
	ch := s.loads.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		c, err := s.carts.Get(lctx, userID)
		if err != nil {
			return domain.Cart{}, err
		}
		if err := s.cache.Set(lctx, version, domain.LinesOf(c)); err != nil {
			s.log.Warn("cart cache write failed", "user_id", userID, "err", err)
		}
		return c, nil
	})
	select {
	case <-ctx.Done():
		return domain.Cart{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return domain.Cart{}, r.Err
		}
		return r.Val.(domain.Cart), nil
	}
}

func (s *Service) View(ctx context.Context, userID int64, f domain.Filter, key domain.SortKey) (View, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return View{}, err
	}
	items := domain.FilterAndSort(c.Items, f, key)
	return View{CartID: c.ID, Items: items, Summary: domain.Summarize(items)}, nil
}

// AddItem merges with an existing line for the same product. The merged
// quantity must still be within bounds.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (domain.CartItem, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return domain.CartItem{}, err
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return domain.CartItem{}, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return domain.CartItem{}, err
	}
	merged := quantity
	for _, it := range c.Items {
		if it.Product.ID == productID {
			merged += it.Quantity
			break
		}
	}
	if err := domain.ValidateQuantity(merged); err != nil {
		return domain.CartItem{}, err
	}
	item, err := s.carts.SetQuantity(ctx, userID, productID, merged)
	if err != nil {
		return domain.CartItem{}, err
	}
	s.invalidate(ctx, userID)
	return item, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (domain.CartItem, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return domain.CartItem{}, err
	}
	item, err := s.carts.UpdateItem(ctx, userID, itemID, quantity)
	if err != nil {
		return domain.CartItem{}, err
	}
	s.invalidate(ctx, userID)
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := s.carts.RemoveItem(ctx, userID, itemID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Invalidate retires the cached rows after a write made elsewhere, e.g. order
// placement emptying the cart.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	return s.cache.Invalidate(ctx, userID)
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("cart cache invalidate failed", "user_id", userID, "err", err)
	}
}
