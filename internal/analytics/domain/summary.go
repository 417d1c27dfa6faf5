package domain

import order "github.com/dmehra2102/ecobazaar/internal/order/domain"

type PlatformSummary struct {
	TotalUsers            int64   `json:"totalUsers"`
	TotalProducts         int64   `json:"totalProducts"`
	TotalOrders           int     `json:"totalOrders"`
	TotalCarbonFootprint  float64 `json:"totalCarbonFootprint"`
	TotalRevenue          float64 `json:"totalRevenue"`
	AverageCarbonPerOrder float64 `json:"averageCarbonPerOrder"`
}

func ComputePlatformSummary(orders []order.Order, userCount, productCount int64) PlatformSummary {
	s := PlatformSummary{
		TotalUsers:    userCount,
		TotalProducts: productCount,
		TotalOrders:   len(orders),
	}
	for _, o := range orders {
		s.TotalCarbonFootprint += o.TotalCarbonFootprint
		s.TotalRevenue += o.TotalAmount
	}
	if len(orders) > 0 {
		s.AverageCarbonPerOrder = s.TotalCarbonFootprint / float64(len(orders))
	}
	return s
}
