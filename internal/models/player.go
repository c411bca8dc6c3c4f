package models

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DomesticCountry is the only country that does not count against the
// foreign player quota.
const DomesticCountry = "Pakistan"

// Upper bounds on player attributes. They keep team accumulators far away
// from integer overflow whatever a client sends.
const (
	MaxRating = 1000
	MaxPrice  = 1_000_000_000
)

// Category is the rating-derived tier of a player
type Category string

const (
	CategoryPlatinum Category = "Platinum"
	CategoryDiamond  Category = "Diamond"
	CategorySilver   Category = "Silver"
	CategoryBronze   Category = "Bronze"
	CategoryEmerging Category = "Emerging"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryPlatinum,
	CategoryDiamond,
	CategorySilver,
	CategoryBronze,
	CategoryEmerging,
}

// CategoryFor derives the category of a rating.
func CategoryFor(rating int) Category {
	switch {
	case rating > 90:
		return CategoryPlatinum
	case rating > 80:
		return CategoryDiamond
	case rating > 60:
		return CategorySilver
	case rating > 50:
		return CategoryBronze
	default:
		return CategoryEmerging
	}
}

// Order returns the display priority of the category, 1 being the highest.
// Unknown categories sort last.
func (c Category) Order() int {
	switch c {
	case CategoryPlatinum:
		return 1
	case CategoryDiamond:
		return 2
	case CategorySilver:
		return 3
	case CategoryBronze:
		return 4
	case CategoryEmerging:
		return 5
	default:
		return 6
	}
}

// Color returns the hex color used to render the category badge
func (c Category) Color() string {
	switch c {
	case CategoryPlatinum:
		return "#E5E4E2"
	case CategoryDiamond:
		return "#B9F2FF"
	case CategorySilver:
		return "#C0C0C0"
	case CategoryBronze:
		return "#CD7F32"
	case CategoryEmerging:
		return "#90EE90"
	default:
		return "#FFFFFF"
	}
}

// Player represents a cricketer available in the draft pool
type Player struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Rating   int      `json:"rating"`
	Price    int      `json:"price"`
	Country  string   `json:"country"`
	Category Category `json:"category"`
	Picked   bool     `json:"picked"`
}

// NewPlayer validates the attributes and returns an unpicked player with its
// category derived from the rating.
func NewPlayer(id, name string, rating, price int, country string) (*Player, error) {
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, Validationf("Player id is required")
	}
	if name == "" {
		return nil, Validationf("Player name is required")
	}
	if rating < 0 {
		return nil, Validationf("Rating cannot be negative")
	}
	if rating > MaxRating {
		return nil, Validationf("Rating cannot exceed %d", MaxRating)
	}
	if price < 0 {
		return nil, Validationf("Price cannot be negative")
	}
	if price > MaxPrice {
		return nil, Validationf("Price cannot exceed %s", FormatCurrency(MaxPrice))
	}
	country = strings.TrimSpace(country)
	if country == "" {
		country = DomesticCountry
	}

	return &Player{
		ID:       id,
		Name:     name,
		Rating:   rating,
		Price:    price,
		Country:  country,
		Category: CategoryFor(rating),
	}, nil
}

// IsForeign reports whether the player counts against the foreign quota.
func (p *Player) IsForeign() bool {
	return p.Country != DomesticCountry
}

// SetRating replaces the rating and re-derives the category.
func (p *Player) SetRating(rating int) error {
	if rating < 0 {
		return Validationf("Rating cannot be negative")
	}
	if rating > MaxRating {
		return Validationf("Rating cannot exceed %d", MaxRating)
	}
	p.Rating = rating
	p.Category = CategoryFor(rating)
	return nil
}

var currencyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders an amount the way it is shown to operators,
// e.g. "PKR 500,000".
func FormatCurrency(amount int) string {
	return currencyPrinter.Sprintf("PKR %d", amount)
}
