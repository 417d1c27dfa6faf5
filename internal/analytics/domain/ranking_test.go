package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

func sale(orderID, productID int64, qty int, price float64, name string) Sale {
	return Sale{OrderID: orderID, Item: order.OrderItem{
		ProductID: productID, Quantity: qty, PriceSnapshot: price, CarbonSnapshot: 1, ProductNameSnapshot: name,
	}}
}

func TestRankProducts_OrdersByRevenueThenID(t *testing.T) {
	sales := []Sale{
		sale(1, 30, 1, 10, "Tote"),
		sale(1, 20, 2, 5, "Soap"),
		sale(2, 10, 1, 50, "Kettle"),
		sale(3, 30, 1, 10, "Tote v2"),
		sale(3, 40, 4, 5, "Straw"),
	}
	ranked := RankProducts(sales, func(int64) string { return "Home" })

	require.Len(t, ranked, 4)
	assert.Equal(t, int64(10), ranked[0].ProductID)
	// 30 and 40 tie at 20
	assert.Equal(t, int64(30), ranked[1].ProductID)
	assert.Equal(t, int64(40), ranked[2].ProductID)
	assert.Equal(t, int64(20), ranked[3].ProductID)

	tote := ranked[1]
	assert.Equal(t, "Tote v2", tote.ProductName)
	assert.Equal(t, 2, tote.UnitsSold)
	assert.Equal(t, 2, tote.OrderCount)
	assert.InDelta(t, 20, tote.Revenue, 1e-9)
	assert.InDelta(t, 2, tote.Carbon, 1e-9)
	assert.Equal(t, "Home", tote.Category)
}

func TestRankProducts_OrderCountIsDistinctOrders(t *testing.T) {
	sales := []Sale{
		sale(7, 1, 1, 3, "Cup"),
		sale(7, 1, 2, 3, "Cup"),
		sale(8, 1, 1, 3, "Cup"),
	}
	ranked := RankProducts(sales, nil)
	require.Len(t, ranked, 1)
	assert.Equal(t, 2, ranked[0].OrderCount)
	assert.Equal(t, 4, ranked[0].UnitsSold)
	assert.Empty(t, ranked[0].Category)
}

func TestTopProducts_IsPrefixOfFullRanking(t *testing.T) {
	var sales []Sale
	for i := int64(1); i <= 12; i++ {
		sales = append(sales, sale(i, i, int(i%4)+1, float64(i%5+1), "p"))
	}
	full := RankProducts(sales, nil)
	for _, n := range []int{1, 3, 5, 12, 20} {
		top := TopProducts(sales, nil, n)
		want := full
		if n < len(full) {
			want = full[:n]
		}
		assert.Equal(t, want, top, "limit %d", n)
	}
}

func TestRankSellers_IncludesKnownSellersWithoutSales(t *testing.T) {
	known := []SellerPerformance{
		{SellerID: 5, SellerName: "Quiet Goods", ProductCount: 2},
		{SellerID: 2, SellerName: "Green Threads", Email: "gt@example.com", ProductCount: 4},
	}
	sales := []SellerSale{
		{SellerID: 2, Sale: sale(1, 10, 2, 15, "Shirt")},
		{SellerID: 2, Sale: sale(1, 11, 1, 5, "Socks")},
		{SellerID: 9, Sale: sale(2, 12, 1, 35, "Lamp")},
	}
	ranked := RankSellers(sales, known)

	require.Len(t, ranked, 3)
	assert.Equal(t, int64(9), ranked[0].SellerID)
	assert.InDelta(t, 35, ranked[0].Revenue, 1e-9)

	assert.Equal(t, int64(2), ranked[1].SellerID)
	assert.Equal(t, "Green Threads", ranked[1].SellerName)
	assert.Equal(t, 4, ranked[1].ProductCount)
	assert.Equal(t, 3, ranked[1].UnitsSold)
	assert.Equal(t, 1, ranked[1].OrderCount)
	assert.InDelta(t, 35, ranked[1].Revenue, 1e-9)

	assert.Equal(t, int64(5), ranked[2].SellerID)
	assert.Zero(t, ranked[2].Revenue)
}

func TestRankSellers_TieBreakByID(t *testing.T) {
	known := []SellerPerformance{{SellerID: 3}, {SellerID: 1}, {SellerID: 2}}
	ranked := TopSellers(nil, known, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].SellerID)
	assert.Equal(t, int64(2), ranked[1].SellerID)
}

func TestTruncate(t *testing.T) {
	s := []int{1, 2, 3}
	assert.Equal(t, []int{1, 2, 3}, Truncate(s, 0))
	assert.Equal(t, []int{1, 2, 3}, Truncate(s, -1))
	assert.Equal(t, []int{1, 2}, Truncate(s, 2))
	assert.Equal(t, []int{1, 2, 3}, Truncate(s, 10))
	assert.Empty(t, Truncate([]int(nil), 3))
}
