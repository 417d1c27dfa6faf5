package domain

import (
	"cmp"
	"slices"

	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

const (
	DefaultTopProducts = 5
	DefaultTopSellers  = 10
	DefaultRecent      = 10
)

type ProductPerformance struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	UnitsSold   int     `json:"unitsSold"`
	OrderCount  int     `json:"orderCount"`
	Revenue     float64 `json:"revenue"`
	Carbon      float64 `json:"carbon"`
}

// Sale is one purchased line attributed to the order it came from.
type Sale struct {
	OrderID int64
	Item    order.OrderItem
}

// RankProducts aggregates sales per product and orders them by revenue,
// highest first, ties broken by ascending product ID. The name is the most
// recent snapshot seen; category comes from the caller since items do not
// carry it.
func RankProducts(sales []Sale, categoryOf func(productID int64) string) []ProductPerformance {
	byID := make(map[int64]*ProductPerformance)
	seenOrder := make(map[[2]int64]bool)
	for _, s := range sales {
		it := s.Item
		p, ok := byID[it.ProductID]
		if !ok {
			p = &ProductPerformance{ProductID: it.ProductID}
			if categoryOf != nil {
				p.Category = categoryOf(it.ProductID)
			}
			byID[it.ProductID] = p
		}
		p.ProductName = it.ProductNameSnapshot
		p.UnitsSold += it.Quantity
		p.Revenue += it.Revenue()
		p.Carbon += it.Carbon()
		key := [2]int64{it.ProductID, s.OrderID}
		if !seenOrder[key] {
			seenOrder[key] = true
			p.OrderCount++
		}
	}

	out := make([]ProductPerformance, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b ProductPerformance) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out
}

// TopProducts ranks every product first and only then truncates.
func TopProducts(sales []Sale, categoryOf func(int64) string, limit int) []ProductPerformance {
	return Truncate(RankProducts(sales, categoryOf), limit)
}

type SellerPerformance struct {
	SellerID     int64   `json:"sellerId"`
	SellerName   string  `json:"sellerName"`
	Email        string  `json:"email"`
	ProductCount int     `json:"productCount"`
	UnitsSold    int     `json:"unitsSold"`
	OrderCount   int     `json:"orderCount"`
	Revenue      float64 `json:"revenue"`
}

// SellerSale is a Sale already attributed to the product's seller.
type SellerSale struct {
	SellerID int64
	Sale
}

// RankSellers aggregates revenue per seller, highest first, ties broken by
// ascending seller ID. Sellers from `known` with no sales are ranked too, at
// zero revenue.
func RankSellers(sales []SellerSale, known []SellerPerformance) []SellerPerformance {
	bySeller := make(map[int64]*SellerPerformance, len(known))
	for _, k := range known {
		bySeller[k.SellerID] = &k
	}
	seenOrder := make(map[[2]int64]bool)
	for _, s := range sales {
		p, ok := bySeller[s.SellerID]
		if !ok {
			p = &SellerPerformance{SellerID: s.SellerID}
			bySeller[s.SellerID] = p
		}
		p.UnitsSold += s.Item.Quantity
		p.Revenue += s.Item.Revenue()
		key := [2]int64{s.SellerID, s.OrderID}
		if !seenOrder[key] {
			seenOrder[key] = true
			p.OrderCount++
		}
	}

	out := make([]SellerPerformance, 0, len(bySeller))
	for _, p := range bySeller {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b SellerPerformance) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.SellerID, b.SellerID)
	})
	return out
}

func TopSellers(sales []SellerSale, known []SellerPerformance, limit int) []SellerPerformance {
	return Truncate(RankSellers(sales, known), limit)
}

// Truncate keeps the first limit elements. limit <= 0 keeps everything.
func Truncate[T any](s []T, limit int) []T {
	if limit <= 0 || limit >= len(s) {
		return s
	}
	return s[:limit]
}
