package application

import (
	"context"
	"slices"

	"github.com/dmehra2102/ecobazaar/internal/analytics/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
)

// Slices are projections of the assembled dashboard, never computed on their
// own, so a slice always equals the matching field of the full view.

var shopperSlices = map[string]func(*domain.ShopperDashboard) any{
	"stats":                   func(d *domain.ShopperDashboard) any { return d.Stats },
	"recent-orders":           func(d *domain.ShopperDashboard) any { return d.RecentOrders },
	"achievements":            func(d *domain.ShopperDashboard) any { return d.Achievements },
	"tips":                    func(d *domain.ShopperDashboard) any { return d.PersonalizedTips },
	"carbon-trend":            func(d *domain.ShopperDashboard) any { return d.CarbonTrend },
	"category-breakdown":      func(d *domain.ShopperDashboard) any { return d.CategoryBreakdown },
	"eco-rating-distribution": func(d *domain.ShopperDashboard) any { return d.EcoRatingDistribution },
}

var sellerSlices = map[string]func(*domain.SellerDashboard) any{
	"stats":             func(d *domain.SellerDashboard) any { return d.Stats },
	"top-products":      func(d *domain.SellerDashboard) any { return d.TopProducts },
	"recent-orders":     func(d *domain.SellerDashboard) any { return d.RecentOrders },
	"sales-by-category": func(d *domain.SellerDashboard) any { return d.SalesByCategory },
	"revenue-breakdown": func(d *domain.SellerDashboard) any { return d.RevenueBreakdown },
}

var adminSlices = map[string]func(*domain.AdminDashboard) any{
	"platform-stats":         func(d *domain.AdminDashboard) any { return d.PlatformStats },
	"pending-verifications":  func(d *domain.AdminDashboard) any { return d.PendingVerifications },
	"top-sellers":            func(d *domain.AdminDashboard) any { return d.TopSellers },
	"recent-activities":      func(d *domain.AdminDashboard) any { return d.RecentActivities },
	"carbon-impact":          func(d *domain.AdminDashboard) any { return d.CarbonImpact },
	"user-role-distribution": func(d *domain.AdminDashboard) any { return d.UserRoleDistribution },
}

// SliceNames lists the sections available for a role, sorted.
func SliceNames(role identity.Role) []string {
	var names []string
	switch role {
	case identity.RoleShopper:
		names = keys(shopperSlices)
	case identity.RoleSeller:
		names = keys(sellerSlices)
	case identity.RoleAdmin:
		names = keys(adminSlices)
	}
	slices.Sort(names)
	return names
}

func (s *Service) ShopperSlice(ctx context.Context, userID int64, name string, lim Limits) (any, error) {
	project, ok := shopperSlices[name]
	if !ok {
		return nil, ErrUnknownSlice
	}
	d, err := s.DashboardWithLimits(ctx, identity.RoleShopper, userID, lim)
	if err != nil {
		return nil, err
	}
	return project(d.Shopper), nil
}

func (s *Service) SellerSlice(ctx context.Context, sellerID int64, name string, lim Limits) (any, error) {
	project, ok := sellerSlices[name]
	if !ok {
		return nil, ErrUnknownSlice
	}
	d, err := s.DashboardWithLimits(ctx, identity.RoleSeller, sellerID, lim)
	if err != nil {
		return nil, err
	}
	return project(d.Seller), nil
}

func (s *Service) AdminSlice(ctx context.Context, name string, lim Limits) (any, error) {
	project, ok := adminSlices[name]
	if !ok {
		return nil, ErrUnknownSlice
	}
	d, err := s.DashboardWithLimits(ctx, identity.RoleAdmin, 0, lim)
	if err != nil {
		return nil, err
	}
	return project(d.Admin), nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
