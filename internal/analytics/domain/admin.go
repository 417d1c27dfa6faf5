package domain

import (
	"cmp"
	"slices"
	"time"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

type PlatformStats struct {
	TotalUsers           int     `json:"totalUsers"`
	TotalShoppers        int     `json:"totalShoppers"`
	TotalSellers         int     `json:"totalSellers"`
	TotalAdmins          int     `json:"totalAdmins"`
	ActiveUsers          int     `json:"activeUsers"`
	TotalProducts        int     `json:"totalProducts"`
	VerifiedProducts     int     `json:"verifiedProducts"`
	PendingVerifications int     `json:"pendingVerifications"`
	TotalOrders          int     `json:"totalOrders"`
	TotalRevenue         float64 `json:"totalRevenue"`
	TotalCarbonFootprint float64 `json:"totalCarbonFootprint"`
}

type PendingVerification struct {
	ProductID       int64             `json:"productId"`
	ProductName     string            `json:"productName"`
	SellerID        int64             `json:"sellerId"`
	SellerName      string            `json:"sellerName"`
	Category        string            `json:"category"`
	Price           float64           `json:"price"`
	CarbonFootprint float64           `json:"carbonFootprint"`
	EcoRating       catalog.EcoRating `json:"ecoRating"`
	SubmittedAt     time.Time         `json:"submittedAt"`
}

type RecentActivity struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	UserName   string    `json:"userName"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   int64     `json:"entityId"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

type CarbonImpactSummary struct {
	PlatformSummary
	CarbonSaved        float64 `json:"carbonSaved"`
	GreenPurchases     int     `json:"greenPurchases"`
	GreenPurchaseShare float64 `json:"greenPurchaseShare"`
	EcoScore           int     `json:"ecoScore"`
	Badge              Badge   `json:"badge"`
}

type AdminDashboard struct {
	PlatformStats        PlatformStats         `json:"platformStats"`
	PendingVerifications []PendingVerification `json:"pendingVerifications"`
	TopSellers           []SellerPerformance   `json:"topSellers"`
	RecentActivities     []RecentActivity      `json:"recentActivities"`
	CarbonImpact         CarbonImpactSummary   `json:"carbonImpact"`
	UserRoleDistribution map[string]int        `json:"userRoleDistribution"`
}

type AdminInput struct {
	Users    []identity.User
	Products []catalog.Product
	Orders   []order.Order
	// Pending comes from the catalog's verification queue as-is.
	Pending []catalog.Product
	// Audit is the activity log, any order.
	Audit  []audit.Entry
	Config ScoringConfig

	TopSellersLimit int
	RecentLimit     int
}

func AssembleAdmin(in AdminInput) AdminDashboard {
	users := make(map[int64]identity.User, len(in.Users))
	roles := RoleDistribution(in.Users)
	stats := PlatformStats{
		TotalUsers:           len(in.Users),
		TotalShoppers:        roles[identity.RoleShopper.String()],
		TotalSellers:         roles[identity.RoleSeller.String()],
		TotalAdmins:          roles[identity.RoleAdmin.String()],
		TotalProducts:        len(in.Products),
		PendingVerifications: len(in.Pending),
		TotalOrders:          len(in.Orders),
	}
	for _, u := range in.Users {
		users[u.ID] = u
		if u.Active {
			stats.ActiveUsers++
		}
	}
	for _, p := range in.Products {
		if p.Verified {
			stats.VerifiedProducts++
		}
	}
	summary := ComputePlatformSummary(in.Orders, int64(len(in.Users)), int64(len(in.Products)))
	stats.TotalRevenue = summary.TotalRevenue
	stats.TotalCarbonFootprint = summary.TotalCarbonFootprint

	return AdminDashboard{
		PlatformStats:        stats,
		PendingVerifications: pendingVerifications(in.Pending, users),
		TopSellers:           TopSellers(sellerSales(in.Orders, in.Products), knownSellers(in.Users, in.Products), limitOr(in.TopSellersLimit, DefaultTopSellers)),
		RecentActivities:     recentActivities(in.Audit, users, limitOr(in.RecentLimit, DefaultRecent)),
		CarbonImpact:         carbonImpact(summary, in.Orders, in.Config),
		UserRoleDistribution: roles,
	}
}

// RoleDistribution counts users per role; every role is present.
func RoleDistribution(users []identity.User) map[string]int {
	out := make(map[string]int, len(identity.Roles))
	for _, r := range identity.Roles {
		out[r.String()] = 0
	}
	for _, u := range users {
		if u.Role.Valid() {
			out[u.Role.String()]++
		}
	}
	return out
}

func pendingVerifications(pending []catalog.Product, users map[int64]identity.User) []PendingVerification {
	sorted := slices.Clone(pending)
	slices.SortFunc(sorted, func(a, b catalog.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	out := make([]PendingVerification, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, PendingVerification{
			ProductID:       p.ID,
			ProductName:     p.Name,
			SellerID:        p.SellerID,
			SellerName:      users[p.SellerID].FullName,
			Category:        p.Category,
			Price:           p.Price,
			CarbonFootprint: p.CarbonFootprint,
			EcoRating:       p.EcoRating,
			SubmittedAt:     p.CreatedAt,
		})
	}
	return out
}

func sellerSales(orders []order.Order, products []catalog.Product) []SellerSale {
	sellerOf := make(map[int64]int64, len(products))
	for _, p := range products {
		sellerOf[p.ID] = p.SellerID
	}
	var out []SellerSale
	for _, o := range orders {
		for _, it := range o.Items {
			seller, ok := sellerOf[it.ProductID]
			if !ok {
				continue
			}
			out = append(out, SellerSale{SellerID: seller, Sale: Sale{OrderID: o.ID, Item: it}})
		}
	}
	return out
}

func knownSellers(users []identity.User, products []catalog.Product) []SellerPerformance {
	counts := make(map[int64]int)
	for _, p := range products {
		counts[p.SellerID]++
	}
	var out []SellerPerformance
	for _, u := range users {
		if u.Role != identity.RoleSeller {
			continue
		}
		out = append(out, SellerPerformance{
			SellerID:     u.ID,
			SellerName:   u.FullName,
			Email:        u.Email,
			ProductCount: counts[u.ID],
		})
	}
	return out
}

func recentActivities(entries []audit.Entry, users map[int64]identity.User, limit int) []RecentActivity {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b audit.Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	sorted = Truncate(sorted, limit)

	out := make([]RecentActivity, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, RecentActivity{
			ID:         e.ID,
			UserID:     e.UserID,
			UserName:   users[e.UserID].FullName,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Details:    e.Details,
			Timestamp:  e.CreatedAt,
		})
	}
	return out
}

func carbonImpact(summary PlatformSummary, orders []order.Order, cfg ScoringConfig) CarbonImpactSummary {
	report := ComputeUserReport(orders, cfg)
	lines := 0
	for _, o := range orders {
		lines += len(o.Items)
	}
	impact := CarbonImpactSummary{
		PlatformSummary: summary,
		CarbonSaved:     report.CarbonSaved,
		GreenPurchases:  report.GreenPurchases,
		EcoScore:        report.EcoScore,
		Badge:           report.Badge,
	}
	if lines > 0 {
		impact.GreenPurchaseShare = float64(report.GreenPurchases) / float64(lines)
	}
	return impact
}
