package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Rating    float64            `bson:"rating" json:"rating" validate:"omitempty,min=1,max=5"`
	Text      string             `bson:"text" json:"text" validate:"required"`
	User      primitive.ObjectID `bson:"user" json:"user" validate:"required"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// DefaultReviewRating is used when a review is created without a rating.
const DefaultReviewRating = 3.5
