package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

const (
	// HighCarbonThreshold marks a purchased unit (kg CO2e) worth a swap tip.
	HighCarbonThreshold = 5.0

	// CategoryHotspotShare is the share of total footprint one category
	// needs before it gets its own tip.
	CategoryHotspotShare = 0.4

	UncategorizedLabel = "Uncategorized"
)

type UserStats struct {
	UserCarbonReport
	TotalSpent            float64 `json:"totalSpent"`
	AverageCarbonPerOrder float64 `json:"averageCarbonPerOrder"`
}

type RecentOrder struct {
	OrderID       int64             `json:"orderId"`
	Status        order.OrderStatus `json:"status"`
	PaymentStatus string            `json:"paymentStatus"`
	TotalAmount   float64           `json:"totalAmount"`
	TotalCarbon   float64           `json:"totalCarbon"`
	ItemCount     int               `json:"itemCount"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type Achievement struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Current     float64 `json:"current"`
	Target      float64 `json:"target"`
	Progress    int     `json:"progress"`
	Unlocked    bool    `json:"unlocked"`
}

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

type CarbonTip struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Impact   Impact `json:"impact"`
}

type ShopperDashboard struct {
	Stats                 UserStats          `json:"stats"`
	RecentOrders          []RecentOrder      `json:"recentOrders"`
	Achievements          []Achievement      `json:"achievements"`
	PersonalizedTips      []CarbonTip        `json:"personalizedTips"`
	CarbonTrend           CarbonTrend        `json:"carbonTrend"`
	CategoryBreakdown     map[string]float64 `json:"categoryBreakdown"`
	EcoRatingDistribution map[string]int     `json:"ecoRatingDistribution"`
}

type ShopperInput struct {
	Orders []order.Order
	// Products is keyed by ID and holds the live products the orders refer
	// to. Missing products are tolerated.
	Products map[int64]catalog.Product
	Now      time.Time
	Config   ScoringConfig
	// RecentLimit defaults to DefaultRecent when zero.
	RecentLimit int
}

func AssembleShopper(in ShopperInput) ShopperDashboard {
	report := ComputeUserReport(in.Orders, in.Config)
	stats := UserStats{UserCarbonReport: report}
	for _, o := range in.Orders {
		stats.TotalSpent += o.TotalAmount
	}
	if report.TotalOrders > 0 {
		stats.AverageCarbonPerOrder = report.TotalCarbonFootprint / float64(report.TotalOrders)
	}

	breakdown := CategoryCarbon(in.Orders, in.Products)
	dist := RatingDistribution(in.Orders, in.Products)

	return ShopperDashboard{
		Stats:                 stats,
		RecentOrders:          RecentOrders(in.Orders, limitOr(in.RecentLimit, DefaultRecent)),
		Achievements:          Achievements(report, in.Config),
		PersonalizedTips:      Tips(in.Orders, report, breakdown, dist, in.Config),
		CarbonTrend:           MonthlyTrend(in.Orders, in.Now, DefaultTrendMonths),
		CategoryBreakdown:     breakdown,
		EcoRatingDistribution: dist,
	}
}

// RecentOrders sorts newest first (ties by higher ID) and truncates.
func RecentOrders(orders []order.Order, limit int) []RecentOrder {
	sorted := slices.Clone(orders)
	slices.SortFunc(sorted, func(a, b order.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	sorted = Truncate(sorted, limit)

	out := make([]RecentOrder, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, RecentOrder{
			OrderID:       o.ID,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			TotalAmount:   o.TotalAmount,
			TotalCarbon:   o.TotalCarbonFootprint,
			ItemCount:     o.ItemCount(),
			CreatedAt:     o.CreatedAt,
		})
	}
	return out
}

// CategoryCarbon sums purchased footprint per live product category.
func CategoryCarbon(orders []order.Order, products map[int64]catalog.Product) map[string]float64 {
	out := make(map[string]float64)
	for _, o := range orders {
		for _, it := range o.Items {
			out[categoryLabel(products, it.ProductID)] += it.Carbon()
		}
	}
	return out
}

// RatingDistribution counts purchased units per eco-rating. Every known grade
// is present; "Unrated" only shows up when something landed there.
func RatingDistribution(orders []order.Order, products map[int64]catalog.Product) map[string]int {
	out := make(map[string]int, len(catalog.Ratings)+1)
	for _, g := range catalog.Ratings {
		out[string(g)] = 0
	}
	for _, o := range orders {
		for _, it := range o.Items {
			grade := catalog.Unrated
			if p, ok := products[it.ProductID]; ok && p.EcoRating.Known() {
				grade = p.EcoRating
			}
			out[string(grade)] += it.Quantity
		}
	}
	return out
}

func categoryLabel(products map[int64]catalog.Product, id int64) string {
	if p, ok := products[id]; ok && p.Category != "" {
		return p.Category
	}
	return UncategorizedLabel
}

type milestone struct {
	id, title, desc string
	target          float64
	current         func(UserCarbonReport) float64
}

func milestones(cfg ScoringConfig) []milestone {
	orders := func(r UserCarbonReport) float64 { return float64(r.TotalOrders) }
	green := func(r UserCarbonReport) float64 { return float64(r.GreenPurchases) }
	return []milestone{
		{"first-order", "First Order", "Place your first order", 1, orders},
		{"green-beginner", "Green Beginner", "Buy your first low-carbon product", 1, green},
		{"green-shopper", "Green Shopper", "Make 10 green purchases", 10, green},
		{"eco-champion", "Eco Champion", "Make 50 green purchases", 50, green},
		{"loyal-shopper", "Loyal Shopper", "Place 10 orders", 10, orders},
		{"carbon-cutter", "Carbon Cutter", "Save 50 kg of CO2e", 50, func(r UserCarbonReport) float64 { return r.CarbonSaved }},
		{"planet-protector", "Planet Protector", "Reach the Planet Protector badge",
			float64(cfg.ProtectorAbove + 1), func(r UserCarbonReport) float64 { return float64(r.EcoScore) }},
	}
}

func Achievements(report UserCarbonReport, cfg ScoringConfig) []Achievement {
	ms := milestones(cfg)
	out := make([]Achievement, 0, len(ms))
	for _, m := range ms {
		cur := m.current(report)
		progress := int(math.Floor(math.Min(cur/m.target, 1) * 100))
		out = append(out, Achievement{
			ID:          m.id,
			Title:       m.title,
			Description: m.desc,
			Current:     cur,
			Target:      m.target,
			Progress:    progress,
			Unlocked:    cur >= m.target,
		})
	}
	return out
}

// Tips walks a small decision table over the shopper's history. Rules are
// evaluated in order and each fires at most once.
func Tips(orders []order.Order, report UserCarbonReport, breakdown map[string]float64, dist map[string]int, cfg ScoringConfig) []CarbonTip {
	if len(orders) == 0 {
		return []CarbonTip{{
			ID:      "start-green",
			Title:   "Start with eco-rated products",
			Message: "Products rated A+ or A carry the smallest footprint. Filter your cart by carbon to find them.",
			Impact:  ImpactHigh,
		}}
	}

	var tips []CarbonTip

	if cat, share := hotspot(breakdown); share >= CategoryHotspotShare {
		tips = append(tips, CarbonTip{
			ID:       "category-hotspot",
			Title:    fmt.Sprintf("%s drives your footprint", cat),
			Message:  fmt.Sprintf("%.0f%% of your carbon comes from %s. Look for lower-impact alternatives in this category.", share*100, cat),
			Category: cat,
			Impact:   ImpactHigh,
		})
	}

	lines, heavy := 0, 0
	for _, o := range orders {
		for _, it := range o.Items {
			lines++
			if it.CarbonSnapshot >= HighCarbonThreshold {
				heavy++
			}
		}
	}
	if heavy > 0 {
		tips = append(tips, CarbonTip{
			ID:      "swap-high-carbon",
			Title:   "Swap high-carbon items",
			Message: fmt.Sprintf("%d of your purchases were above %.0f kg CO2e each. An A-rated alternative can cut that sharply.", heavy, HighCarbonThreshold),
			Impact:  ImpactHigh,
		})
	}

	if lines > 0 && float64(report.GreenPurchases)/float64(lines) < 0.5 {
		tips = append(tips, CarbonTip{
			ID:      "choose-green",
			Title:   "Choose more green products",
			Message: fmt.Sprintf("Items under %.1f kg CO2e count as green purchases and raise your eco-score.", cfg.GreenThreshold),
			Impact:  ImpactMedium,
		})
	}

	if report.TotalCarbonFootprint/float64(len(orders)) > cfg.BaselinePerOrder {
		tips = append(tips, CarbonTip{
			ID:      "consolidate-orders",
			Title:   "Combine your orders",
			Message: "Your average order is above the platform baseline. Fewer, fuller orders reduce packaging and delivery emissions.",
			Impact:  ImpactMedium,
		})
	}

	units, low := 0, 0
	for grade, n := range dist {
		units += n
		if grade == string(catalog.RatingC) || grade == string(catalog.RatingD) {
			low += n
		}
	}
	if units > 0 && float64(low)/float64(units) >= 0.3 {
		tips = append(tips, CarbonTip{
			ID:      "eco-rating",
			Title:   "Check the eco-rating",
			Message: "Many of your purchases are rated C or D. Compare ratings before adding to cart.",
			Impact:  ImpactLow,
		})
	}

	if len(tips) == 0 {
		tips = append(tips, CarbonTip{
			ID:      "keep-going",
			Title:   "Keep it up",
			Message: "Your purchases are below the platform baseline. Keep choosing low-carbon products.",
			Impact:  ImpactLow,
		})
	}
	return tips
}

// hotspot returns the category with the largest footprint and its share.
// Ties go to the lexically smaller name so the result is deterministic.
func hotspot(breakdown map[string]float64) (string, float64) {
	var total, best float64
	name := ""
	for cat, v := range breakdown {
		total += v
		if v > best || (v == best && name != "" && cat < name) {
			best, name = v, cat
		}
	}
	if total <= 0 {
		return "", 0
	}
	return name, best / total
}

func limitOr(limit, def int) int {
	if limit == 0 {
		return def
	}
	return limit
}
