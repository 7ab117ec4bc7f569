package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/phillip/tour-booking-go/models"
	utils "github.com/phillip/tour-booking-go/utils"
)

func validTour() models.Tour {
	return models.Tour{
		Name:       "The Forest Hiker",
		Price:      497,
		Duration:   5,
		ImageCover: "tour-1-cover.jpg",
		Summary:    "Breathtaking hike through the Canadian Banff National Park",
		Difficulty: "easy",
	}
}

func TestTourValidationAccepts(t *testing.T) {
	tour := validTour()
	assert.NoError(t, utils.ValidateStruct(&tour))
}

func TestTourNameConstraints(t *testing.T) {
	cases := []struct {
		name    string
		tour    string
		message string
	}{
		{"too short", "Short", "at least"},
		{"too long", strings.Repeat("Very Long Name ", 5), "at most"},
		{"contains digits", "The Hiker Number 1", "digits"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tour := validTour()
			tour.Name = tc.tour

			err := utils.ValidateStruct(&tour)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestTourDifficultyEnum(t *testing.T) {
	tour := validTour()
	tour.Difficulty = "impossible"
	assert.Error(t, utils.ValidateStruct(&tour))

	for _, difficulty := range []string{"easy", "medium", "difficult"} {
		tour.Difficulty = difficulty
		assert.NoError(t, utils.ValidateStruct(&tour))
	}
}

func TestTourRatingBounds(t *testing.T) {
	tour := validTour()

	tour.Rating = 0.5
	assert.Error(t, utils.ValidateStruct(&tour))

	tour.Rating = 5.5
	assert.Error(t, utils.ValidateStruct(&tour))

	tour.Rating = 4.8
	assert.NoError(t, utils.ValidateStruct(&tour))
}

func TestValidateDiscount(t *testing.T) {
	tour := validTour()

	assert.True(t, tour.ValidateDiscount(), "absent discount is fine")

	tour.PriceDiscount = tour.Price - 1
	assert.True(t, tour.ValidateDiscount())

	tour.PriceDiscount = tour.Price
	assert.False(t, tour.ValidateDiscount())

	tour.PriceDiscount = tour.Price + 100
	assert.False(t, tour.ValidateDiscount())
}

func TestFillDerived(t *testing.T) {
	tour := validTour()
	tour.Duration = 10

	tour.FillDerived()

	assert.InDelta(t, 1.43, tour.DurationWeeks, 0.001)
}
