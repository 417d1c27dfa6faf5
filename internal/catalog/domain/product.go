package domain

import (
	"time"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

// EcoRating is the ordinal sustainability grade shown on product cards.
type EcoRating string

const (
	RatingAPlus EcoRating = "A+"
	RatingA     EcoRating = "A"
	RatingB     EcoRating = "B"
	RatingC     EcoRating = "C"
	RatingD     EcoRating = "D"
	Unrated     EcoRating = "Unrated"
)

// Ratings lists the grades from best to worst.
var Ratings = []EcoRating{RatingAPlus, RatingA, RatingB, RatingC, RatingD}

func (r EcoRating) Known() bool {
	for _, g := range Ratings {
		if g == r {
			return true
		}
	}
	return false
}

// Points maps a grade to a 0..4 scale so averages can be taken. Unknown
// grades report ok=false.
func (r EcoRating) Points() (float64, bool) {
	for i, g := range Ratings {
		if g == r {
			return float64(len(Ratings) - 1 - i), true
		}
	}
	return 0, false
}

type Product struct {
	ID              int64
	SellerID        int64
	Name            string
	Category        string
	Price           float64
	CarbonFootprint float64
	EcoRating       EcoRating
	ImageURL        string
	Verified        bool
	CreatedAt       time.Time
}

var ErrProductNotFound = apperr.New(apperr.KindNotFound, "product not found")

// Index builds a lookup by product ID.
func Index(products []Product) map[int64]Product {
	m := make(map[int64]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
