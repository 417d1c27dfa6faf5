package domain

import (
	"time"

	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

const (
	DefaultTrendMonths = 12
	monthLabelLayout   = "2006-01"
)

type TrendPoint struct {
	Month  string  `json:"month"`
	Carbon float64 `json:"carbon"`
}

type CarbonTrend struct {
	Points []TrendPoint `json:"points"`
	Total  float64      `json:"total"`
}

// MonthlyTrend sums order footprints into the `months` calendar months that
// end with the month containing now, oldest first. Months without orders are
// reported as zero, and orders outside the range are ignored.
func MonthlyTrend(orders []order.Order, now time.Time, months int) CarbonTrend {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	loc := now.Location()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	first := current.AddDate(0, -(months - 1), 0)

	points := make([]TrendPoint, months)
	index := make(map[string]int, months)
	for i := range points {
		label := first.AddDate(0, i, 0).Format(monthLabelLayout)
		points[i].Month = label
		index[label] = i
	}

	var total float64
	for _, o := range orders {
		at := o.CreatedAt.In(loc)
		if at.After(now) {
			continue
		}
		i, ok := index[at.Format(monthLabelLayout)]
		if !ok {
			continue
		}
		points[i].Carbon += o.TotalCarbonFootprint
		total += o.TotalCarbonFootprint
	}
	return CarbonTrend{Points: points, Total: total}
}

type RevenueWindows struct {
	Today     float64 `json:"today"`
	ThisWeek  float64 `json:"thisWeek"`
	ThisMonth float64 `json:"thisMonth"`
	AllTime   float64 `json:"allTime"`
}

// StartOfDay, StartOfWeek and StartOfMonth are evaluated in now's location.
// Weeks start on Monday.
func StartOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func StartOfWeek(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	return StartOfDay(now).AddDate(0, 0, -offset)
}

func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ComputeRevenueWindows sums TotalAmount over [start, now] for each window.
// The windows overlap; an order counted today is also counted this week.
func ComputeRevenueWindows(orders []order.Order, now time.Time) RevenueWindows {
	day, week, month := StartOfDay(now), StartOfWeek(now), StartOfMonth(now)

	var w RevenueWindows
	for _, o := range orders {
		at := o.CreatedAt
		if at.After(now) {
			continue
		}
		w.AllTime += o.TotalAmount
		if !at.Before(month) {
			w.ThisMonth += o.TotalAmount
		}
		if !at.Before(week) {
			w.ThisWeek += o.TotalAmount
		}
		if !at.Before(day) {
			w.Today += o.TotalAmount
		}
	}
	return w
}
