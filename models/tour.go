package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a GeoJSON point with presentation extras.
type Location struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Day         int       `bson:"day,omitempty" json:"day,omitempty"`
}

type Tour struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name" validate:"required,min=10,max=50,nodigits"`
	Slug            string               `bson:"slug,omitempty" json:"slug,omitempty"`
	Price           float64              `bson:"price" json:"price" validate:"required,gt=0"`
	PriceDiscount   float64              `bson:"price_discount,omitempty" json:"priceDiscount,omitempty" validate:"omitempty,gt=0"`
	Duration        float64              `bson:"duration" json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                  `bson:"max_group_size,omitempty" json:"maxGroupSize,omitempty"`
	Images          []string             `bson:"images,omitempty" json:"images,omitempty"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string               `bson:"image_cover,omitempty" json:"imageCover,omitempty" validate:"required"`
	StartDates      []time.Time          `bson:"start_dates,omitempty" json:"startDates,omitempty"`
	Summary         string               `bson:"summary" json:"summary" validate:"required"`
	Difficulty      string               `bson:"difficulty" json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Rating          float64              `bson:"rating,omitempty" json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	RatingsAverage  float64              `bson:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int                  `bson:"ratings_quantity" json:"ratingsQuantity"`
	IsSecret        bool                 `bson:"is_secret" json:"isSecret"`
	StartLocation   Location             `bson:"start_location,omitempty" json:"startLocation,omitempty"`
	Locations       []Location           `bson:"locations,omitempty" json:"locations,omitempty"`
	Guides          []primitive.ObjectID `bson:"guides,omitempty" json:"guides,omitempty"`
	CreatedAt       time.Time            `bson:"created_at" json:"-"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"-"`

	// Derived, never stored
	DurationWeeks float64 `bson:"-" json:"durationWeeks,omitempty"`

	// Filled by $lookup on single-tour reads
	Reviews      []Review       `bson:"reviews,omitempty" json:"reviews,omitempty"`
	GuideDetails []GuideSummary `bson:"guide_details,omitempty" json:"guideDetails,omitempty"`
}

// GuideSummary is the projection of a guide User attached to a tour read.
type GuideSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// FillDerived computes the virtual fields after a fetch.
func (t *Tour) FillDerived() {
	t.DurationWeeks = math.Round(t.Duration/7*100) / 100
}

// ValidateDiscount enforces that a discount stays below the price.
func (t *Tour) ValidateDiscount() bool {
	return t.PriceDiscount == 0 || t.PriceDiscount < t.Price
}

func (t *Tour) ETagParts() (primitive.ObjectID, time.Time) {
	return t.ID, t.UpdatedAt
}

// DefaultRatings are applied on create and whenever a tour loses its last review.
const (
	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)
