package domain

import (
	"time"

	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

type SellerStats struct {
	TotalProducts     int     `json:"totalProducts"`
	VerifiedProducts  int     `json:"verifiedProducts"`
	PendingProducts   int     `json:"pendingProducts"`
	TotalSales        int     `json:"totalSales"`
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	TotalCarbonSold   float64 `json:"totalCarbonSold"`
	// AverageEcoRating is on the 0 (D) to 4 (A+) scale over rated listings.
	AverageEcoRating  float64 `json:"averageEcoRating"`
}

type SellerDashboard struct {
	Stats            SellerStats          `json:"stats"`
	TopProducts      []ProductPerformance `json:"topProducts"`
	RecentOrders     []RecentOrder        `json:"recentOrders"`
	SalesByCategory  map[string]float64   `json:"salesByCategory"`
	RevenueBreakdown RevenueWindows       `json:"revenueBreakdown"`
}

type SellerInput struct {
	SellerID int64
	// Products are the seller's own listings.
	Products []catalog.Product
	// Orders may contain other sellers' lines; only the seller's share is used.
	Orders []order.Order
	Now    time.Time

	TopLimit    int
	RecentLimit int
}

func AssembleSeller(in SellerInput) SellerDashboard {
	owned := catalog.Index(in.Products)
	shares := SellerShare(in.Orders, owned)

	stats := SellerStats{TotalProducts: len(in.Products)}
	var points float64
	rated := 0
	for _, p := range in.Products {
		if p.Verified {
			stats.VerifiedProducts++
		} else {
			stats.PendingProducts++
		}
		if v, ok := p.EcoRating.Points(); ok {
			points += v
			rated++
		}
	}
	if rated > 0 {
		stats.AverageEcoRating = points / float64(rated)
	}

	var sales []Sale
	byCategory := make(map[string]float64)
	for _, o := range shares {
		stats.TotalOrders++
		stats.TotalRevenue += o.TotalAmount
		stats.TotalCarbonSold += o.TotalCarbonFootprint
		for _, it := range o.Items {
			stats.TotalSales += it.Quantity
			byCategory[categoryLabel(owned, it.ProductID)] += it.Revenue()
			sales = append(sales, Sale{OrderID: o.ID, Item: it})
		}
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}

	categoryOf := func(id int64) string { return categoryLabel(owned, id) }
	return SellerDashboard{
		Stats:            stats,
		TopProducts:      TopProducts(sales, categoryOf, limitOr(in.TopLimit, DefaultTopProducts)),
		RecentOrders:     RecentOrders(shares, limitOr(in.RecentLimit, DefaultRecent)),
		SalesByCategory:  byCategory,
		RevenueBreakdown: ComputeRevenueWindows(shares, in.Now),
	}
}

// SellerShare narrows every order to the lines of the given products and
// re-totals it from the item snapshots. Orders with no matching line are
// dropped.
func SellerShare(orders []order.Order, owned map[int64]catalog.Product) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		var items []order.OrderItem
		var amount, carbon float64
		for _, it := range o.Items {
			if _, ok := owned[it.ProductID]; !ok {
				continue
			}
			items = append(items, it)
			amount += it.Revenue()
			carbon += it.Carbon()
		}
		if len(items) == 0 {
			continue
		}
		share := o
		share.Items = items
		share.TotalAmount = amount
		share.TotalCarbonFootprint = carbon
		out = append(out, share)
	}
	return out
}
