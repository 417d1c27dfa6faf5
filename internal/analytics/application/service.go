package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmehra2102/ecobazaar/internal/analytics/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
	"github.com/dmehra2102/ecobazaar/pkg/metrics"
)

var (
	ErrSellerNotFound = apperr.New(apperr.KindNotFound, "seller not found")
	ErrUnknownSlice   = apperr.New(apperr.KindNotFound, "unknown dashboard section")
)

// Limits caps the recent and top lists. Zero means the package default.
type Limits struct {
	Recent int
	Top    int
}

// Dashboard holds exactly one populated variant, matching Role.
type Dashboard struct {
	Role    identity.Role
	Shopper *domain.ShopperDashboard
	Seller  *domain.SellerDashboard
	Admin   *domain.AdminDashboard
}

// Body returns the populated variant for encoding.
func (d Dashboard) Body() any {
	switch d.Role {
	case identity.RoleShopper:
		return d.Shopper
	case identity.RoleSeller:
		return d.Seller
	case identity.RoleAdmin:
		return d.Admin
	}
	return nil
}

type Service struct {
	log      *slog.Logger
	orders   OrderReader
	products ProductReader
	users    UserReader
	audit    AuditReader
	cfg      domain.ScoringConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(log *slog.Logger, orders OrderReader, products ProductReader, users UserReader, audit AuditReader, cfg domain.ScoringConfig, m *metrics.Metrics) *Service {
	return &Service{
		log:      log,
		orders:   orders,
		products: products,
		users:    users,
		audit:    audit,
		cfg:      cfg,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *Service) CarbonReport(ctx context.Context, userID int64) (domain.UserCarbonReport, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return domain.UserCarbonReport{}, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserCarbonReport{}, fmt.Errorf("list orders: %w", err)
	}
	return domain.ComputeUserReport(orders, s.cfg), nil
}

// PlatformSummary is recomputed from current state on every call.
func (s *Service) PlatformSummary(ctx context.Context) (domain.PlatformSummary, error) {
	var (
		orders   []order.Order
		users    int64
		products int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { orders, err = s.orders.ListAll(gctx); return })
	g.Go(func() (err error) { users, err = s.users.Count(gctx); return })
	g.Go(func() (err error) { products, err = s.products.Count(gctx); return })
	if err := g.Wait(); err != nil {
		return domain.PlatformSummary{}, fmt.Errorf("load platform summary: %w", err)
	}
	return domain.ComputePlatformSummary(orders, users, products), nil
}

func (s *Service) Dashboard(ctx context.Context, role identity.Role, subjectID int64) (Dashboard, error) {
	return s.DashboardWithLimits(ctx, role, subjectID, Limits{})
}

// DashboardWithLimits dispatches on role. subjectID is the shopper or
// seller; it is ignored for the platform-wide admin view.
func (s *Service) DashboardWithLimits(ctx context.Context, role identity.Role, subjectID int64, lim Limits) (Dashboard, error) {
	start := time.Now()
	d, err := s.build(ctx, role, subjectID, lim)
	s.metrics.ObserveDashboard(role.String(), start, err)
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		s.log.Error("dashboard build failed", "role", role.String(), "subject_id", subjectID, "err", err)
	}
	return d, err
}

func (s *Service) build(ctx context.Context, role identity.Role, subjectID int64, lim Limits) (Dashboard, error) {
	switch role {
	case identity.RoleShopper:
		d, err := s.shopper(ctx, subjectID, lim)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Role: role, Shopper: &d}, nil
	case identity.RoleSeller:
		d, err := s.seller(ctx, subjectID, lim)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Role: role, Seller: &d}, nil
	case identity.RoleAdmin:
		d, err := s.admin(ctx, lim)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Role: role, Admin: &d}, nil
	}
	return Dashboard{}, identity.ErrUnknownRole
}

func (s *Service) shopper(ctx context.Context, userID int64, lim Limits) (domain.ShopperDashboard, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return domain.ShopperDashboard{}, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return domain.ShopperDashboard{}, fmt.Errorf("list orders: %w", err)
	}
	var products []catalog.Product
	if ids := productIDs(orders); len(ids) > 0 {
		if products, err = s.products.ListByIDs(ctx, ids); err != nil {
			return domain.ShopperDashboard{}, fmt.Errorf("list products: %w", err)
		}
	}
	return domain.AssembleShopper(domain.ShopperInput{
		Orders:      orders,
		Products:    catalog.Index(products),
		Now:         s.now(),
		Config:      s.cfg,
		RecentLimit: lim.Recent,
	}), nil
}

func (s *Service) seller(ctx context.Context, sellerID int64, lim Limits) (domain.SellerDashboard, error) {
	u, err := s.users.Get(ctx, sellerID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return domain.SellerDashboard{}, ErrSellerNotFound
		}
		return domain.SellerDashboard{}, err
	}
	if u.Role != identity.RoleSeller {
		return domain.SellerDashboard{}, ErrSellerNotFound
	}

	products, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return domain.SellerDashboard{}, fmt.Errorf("list seller products: %w", err)
	}
	var orders []order.Order
	if len(products) > 0 {
		ids := make([]int64, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		if orders, err = s.orders.ListContainingProducts(ctx, ids); err != nil {
			return domain.SellerDashboard{}, fmt.Errorf("list seller orders: %w", err)
		}
	}
	return domain.AssembleSeller(domain.SellerInput{
		SellerID:    sellerID,
		Products:    products,
		Orders:      orders,
		Now:         s.now(),
		TopLimit:    lim.Top,
		RecentLimit: lim.Recent,
	}), nil
}

func (s *Service) admin(ctx context.Context, lim Limits) (domain.AdminDashboard, error) {
	recent := lim.Recent
	if recent == 0 {
		recent = domain.DefaultRecent
	}

	var in domain.AdminInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { in.Users, err = s.users.ListAll(gctx); return })
	g.Go(func() (err error) { in.Products, err = s.products.ListAll(gctx); return })
	g.Go(func() (err error) { in.Orders, err = s.orders.ListAll(gctx); return })
	g.Go(func() (err error) { in.Pending, err = s.products.ListPendingVerification(gctx); return })
	g.Go(func() (err error) { in.Audit, err = s.audit.Recent(gctx, recent); return })
	if err := g.Wait(); err != nil {
		return domain.AdminDashboard{}, fmt.Errorf("load admin dashboard: %w", err)
	}

	in.Config = s.cfg
	in.TopSellersLimit = lim.Top
	in.RecentLimit = recent
	return domain.AssembleAdmin(in), nil
}

func productIDs(orders []order.Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.ProductID]; ok {
				continue
			}
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
