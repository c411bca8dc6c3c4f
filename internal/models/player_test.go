package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		rating int
		want   Category
	}{
		{100, CategoryPlatinum},
		{91, CategoryPlatinum},
		{90, CategoryDiamond},
		{81, CategoryDiamond},
		{80, CategorySilver},
		{61, CategorySilver},
		{60, CategoryBronze},
		{51, CategoryBronze},
		{50, CategoryEmerging},
		{0, CategoryEmerging},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, CategoryFor(tt.rating), "rating %d", tt.rating)
	}
}

func TestCategoryOrder(t *testing.T) {
	for i, c := range Categories {
		assert.Equal(t, i+1, c.Order(), "order of %s", c)
	}
	assert.Equal(t, 6, Category("Unknown").Order())
}

func TestNewPlayer(t *testing.T) {
	p, err := NewPlayer("P1001", "  Babar Azam ", 95, 500000, "")
	require.NoError(t, err)

	assert.Equal(t, "Babar Azam", p.Name)
	assert.Equal(t, DomesticCountry, p.Country)
	assert.Equal(t, CategoryPlatinum, p.Category)
	assert.False(t, p.Picked)
	assert.False(t, p.IsForeign())
}

func TestNewPlayerValidation(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		player string
		rating int
		price  int
	}{
		{"missing id", "", "A", 10, 10},
		{"empty name", "P1", "   ", 10, 10},
		{"negative rating", "P1", "A", -1, 10},
		{"negative price", "P1", "A", 10, -5},
		{"rating above cap", "P1", "A", MaxRating + 1, 10},
		{"price above cap", "P1", "A", 10, MaxPrice + 1},
		{"huge rating", "P1", "A", math.MaxInt - 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlayer(tt.id, tt.player, tt.rating, tt.price, "Pakistan")
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.NotEmpty(t, verr.Reason)
		})
	}
}

func TestPlayerSetRating(t *testing.T) {
	p, err := NewPlayer("P1", "Usama Mir", 70, 280000, "Pakistan")
	require.NoError(t, err)
	require.Equal(t, CategorySilver, p.Category)

	require.NoError(t, p.SetRating(92))
	assert.Equal(t, CategoryPlatinum, p.Category)

	require.Error(t, p.SetRating(-1))
	assert.Equal(t, 92, p.Rating)

	var verr *ValidationError
	require.True(t, errors.As(p.SetRating(MaxRating+1), &verr))
	assert.Equal(t, 92, p.Rating)
	require.NoError(t, p.SetRating(MaxRating))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "PKR 500,000", FormatCurrency(500000))
	assert.Equal(t, "PKR 0", FormatCurrency(0))
	assert.Equal(t, "PKR 5,000,000", FormatCurrency(5000000))
}
