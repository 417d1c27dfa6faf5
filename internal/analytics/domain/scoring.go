// Package domain holds the pure aggregation engines behind the carbon report
// and the role dashboards. Nothing here performs I/O or mutates its inputs.
package domain

import (
	"math"

	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

const (
	// DefaultGreenThreshold is the per-unit footprint (kg CO2e) below which a
	// purchased line counts as a green purchase. Comparison is strict.
	DefaultGreenThreshold = 2.0

	// DefaultBaselinePerOrder is the footprint (kg CO2e) an average order is
	// assumed to produce. Carbon saved is measured against it.
	DefaultBaselinePerOrder = 10.0

	// DefaultScoreMultiplier converts kg of carbon saved into eco-score points.
	DefaultScoreMultiplier = 10.0

	// Badge lower bounds, all exclusive.
	DefaultEnthusiastAbove = 100
	DefaultLeaderAbove     = 500
	DefaultProtectorAbove  = 1000
)

type Badge string

const (
	BadgeStarter    Badge = "Eco Starter"
	BadgeEnthusiast Badge = "Eco Enthusiast"
	BadgeLeader     Badge = "Low Carbon Leader"
	BadgeProtector  Badge = "Planet Protector"
)

// ScoringConfig holds the tunable thresholds. The zero value is not usable;
// start from DefaultScoringConfig.
type ScoringConfig struct {
	GreenThreshold   float64
	BaselinePerOrder float64
	ScoreMultiplier  float64
	EnthusiastAbove  int
	LeaderAbove      int
	ProtectorAbove   int
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		GreenThreshold:   DefaultGreenThreshold,
		BaselinePerOrder: DefaultBaselinePerOrder,
		ScoreMultiplier:  DefaultScoreMultiplier,
		EnthusiastAbove:  DefaultEnthusiastAbove,
		LeaderAbove:      DefaultLeaderAbove,
		ProtectorAbove:   DefaultProtectorAbove,
	}
}

func (c ScoringConfig) Badge(ecoScore int) Badge {
	switch {
	case ecoScore > c.ProtectorAbove:
		return BadgeProtector
	case ecoScore > c.LeaderAbove:
		return BadgeLeader
	case ecoScore > c.EnthusiastAbove:
		return BadgeEnthusiast
	default:
		return BadgeStarter
	}
}

func (c ScoringConfig) IsGreen(item order.OrderItem) bool {
	return item.CarbonSnapshot < c.GreenThreshold
}

type UserCarbonReport struct {
	TotalCarbonFootprint float64 `json:"totalCarbonFootprint"`
	CarbonSaved          float64 `json:"carbonSaved"`
	GreenPurchases       int     `json:"greenPurchases"`
	EcoScore             int     `json:"ecoScore"`
	Badge                Badge   `json:"badge"`
	TotalOrders          int     `json:"totalOrders"`
}

func ComputeUserReport(orders []order.Order, cfg ScoringConfig) UserCarbonReport {
	var total float64
	green := 0
	for _, o := range orders {
		total += o.TotalCarbonFootprint
		for _, it := range o.Items {
			if cfg.IsGreen(it) {
				green++
			}
		}
	}

	baseline := float64(len(orders)) * cfg.BaselinePerOrder
	saved := math.Max(0, baseline-total)
	score := int(math.Floor(saved * cfg.ScoreMultiplier))

	return UserCarbonReport{
		TotalCarbonFootprint: total,
		CarbonSaved:          saved,
		GreenPurchases:       green,
		EcoScore:             score,
		Badge:                cfg.Badge(score),
		TotalOrders:          len(orders),
	}
}
