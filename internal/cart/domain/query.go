package domain

import (
	"cmp"
	"slices"
	"strings"
)

// AllCategories is the category value clients send to disable the filter.
const AllCategories = "All"

// Filter narrows a cart view. Every non-nil bound is inclusive and all
// active conditions must hold.
type Filter struct {
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinCarbon *float64
	MaxCarbon *float64
}

type SortKey string

const (
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortCarbonAsc  SortKey = "carbon_asc"
	SortCarbonDesc SortKey = "carbon_desc"
	SortNameAsc    SortKey = "name_asc"
	SortNameDesc   SortKey = "name_desc"
)

func (f Filter) Match(it CartItem) bool {
	p := it.Product
	if f.Category != "" && f.Category != AllCategories && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinCarbon != nil && p.CarbonFootprint < *f.MinCarbon {
		return false
	}
	if f.MaxCarbon != nil && p.CarbonFootprint > *f.MaxCarbon {
		return false
	}
	return true
}

func (k SortKey) compare() func(a, b CartItem) int {
	switch k {
	case SortPriceAsc:
		return func(a, b CartItem) int { return cmp.Compare(a.Product.Price, b.Product.Price) }
	case SortPriceDesc:
		return func(a, b CartItem) int { return cmp.Compare(b.Product.Price, a.Product.Price) }
	case SortCarbonAsc:
		return func(a, b CartItem) int { return cmp.Compare(a.Product.CarbonFootprint, b.Product.CarbonFootprint) }
	case SortCarbonDesc:
		return func(a, b CartItem) int { return cmp.Compare(b.Product.CarbonFootprint, a.Product.CarbonFootprint) }
	case SortNameAsc:
		return func(a, b CartItem) int { return strings.Compare(a.Product.Name, b.Product.Name) }
	case SortNameDesc:
		return func(a, b CartItem) int { return strings.Compare(b.Product.Name, a.Product.Name) }
	}
	return nil
}

// FilterAndSort returns a new slice; items is left untouched. Unknown sort
// keys keep the insertion order, and sorting is stable so equal keys do too.
func FilterAndSort(items []CartItem, f Filter, key SortKey) []CartItem {
	out := make([]CartItem, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	if c := key.compare(); c != nil {
		slices.SortStableFunc(out, c)
	}
	return out
}

type Summary struct {
	TotalItems  int     `json:"totalItems"`
	TotalAmount float64 `json:"totalAmount"`
	TotalCarbon float64 `json:"totalCarbon"`
}

func Summarize(items []CartItem) Summary {
	s := Summary{TotalItems: len(items)}
	for _, it := range items {
		s.TotalAmount += it.Subtotal()
		s.TotalCarbon += it.CarbonTotal()
	}
	return s
}
