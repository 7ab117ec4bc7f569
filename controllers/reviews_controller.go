package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/phillip/tour-booking-go/config"
	models "github.com/phillip/tour-booking-go/models"
	utils "github.com/phillip/tour-booking-go/utils"
)

// ---------------- LIST ----------------

// GetReviews lists reviews, scoped to a tour when reached through the nested
// route.
func GetReviews(cfg *config.Config) gin.HandlerFunc {
	return listHandler[models.Review](cfg, "reviews", reviewScope, nil)
}

func reviewScope(c *gin.Context) (bson.M, error) {
	base := bson.M{}
	if raw := c.Param("id"); raw != "" {
		tourID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, utils.NewAppError(http.StatusBadRequest, "Invalid tour id")
		}
		base["tour"] = tourID
	}
	return base, nil
}

// ---------------- CREATE ----------------
func CreateReview(cfg *config.Config) gin.HandlerFunc {
	return createHandler(cfg, "reviews", newReviewFixup(cfg), func(ctx context.Context, doc *models.Review) error {
		return RecalculateTourRatings(ctx, cfg, doc.Tour)
	})
}

// newReviewFixup stamps the authoring user from the request context and the
// target tour from the nested route, and verifies the tour exists.
func newReviewFixup(cfg *config.Config) func(c *gin.Context, r *models.Review) error {
	return func(c *gin.Context, r *models.Review) error {
		userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			return utils.NewAppError(http.StatusUnauthorized, "invalid user id")
		}

		r.ID = primitive.NewObjectID()
		r.User = userID
		r.CreatedAt = time.Now()
		if r.Rating == 0 {
			r.Rating = models.DefaultReviewRating
		}

		if raw := c.Param("id"); raw != "" {
			tourID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return utils.NewAppError(http.StatusBadRequest, "Invalid tour id")
			}
			r.Tour = tourID
		}

		if r.Tour.IsZero() {
			return utils.NewAppError(http.StatusBadRequest, "A review must be attached to a tour")
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		count, err := cfg.MongoClient.Database(cfg.DBName).Collection("tours").
			CountDocuments(ctx, bson.M{"_id": r.Tour})
		if err != nil {
			return err
		}
		if count == 0 {
			return utils.NewAppError(http.StatusNotFound, "No tour found with the given id")
		}

		return nil
	}
}

// ---------------- UPDATE ----------------
func UpdateReview(cfg *config.Config) gin.HandlerFunc {
	return updateHandler(cfg, "reviews", updateReviewFixup, func(ctx context.Context, doc *models.Review) error {
		return RecalculateTourRatings(ctx, cfg, doc.Tour)
	})
}

// updateReviewFixup keeps authorship: only the author or an admin may touch
// the review, and user/tour references cannot be repointed.
func updateReviewFixup(c *gin.Context, original, r *models.Review) error {
	if c.GetString("role") != models.RoleAdmin && original.User.Hex() != c.GetString("user_id") {
		return utils.NewAppError(http.StatusForbidden, "You can only update your own reviews")
	}

	r.User = original.User
	r.Tour = original.Tour
	r.CreatedAt = original.CreatedAt

	return nil
}

// ---------------- DELETE ----------------
func DeleteReview(cfg *config.Config) gin.HandlerFunc {
	return deleteHandler(cfg, "reviews", func(ctx context.Context, doc *models.Review) error {
		return RecalculateTourRatings(ctx, cfg, doc.Tour)
	})
}

// ---------------- RATING RECOMPUTATION ----------------

// RecalculateTourRatings recomputes a tour's cached ratings from its full
// review set. It runs after every review write and from the nightly sweep;
// a tour with no reviews left falls back to the defaults.
func RecalculateTourRatings(ctx context.Context, cfg *config.Config, tourID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"tour": tourID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":             "$tour",
			"ratingsQuantity": bson.M{"$sum": 1},
			"ratingsAverage":  bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := cfg.MongoClient.Database(cfg.DBName).Collection("reviews").Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}

	var stats []struct {
		RatingsQuantity int     `bson:"ratingsQuantity"`
		RatingsAverage  float64 `bson:"ratingsAverage"`
	}
	if err := cursor.All(ctx, &stats); err != nil {
		return err
	}

	quantity := models.DefaultRatingsQuantity
	average := models.DefaultRatingsAverage
	if len(stats) > 0 {
		quantity = stats[0].RatingsQuantity
		average = stats[0].RatingsAverage
	}

	_, err = cfg.MongoClient.Database(cfg.DBName).Collection("tours").UpdateOne(ctx,
		bson.M{"_id": tourID},
		bson.M{"$set": bson.M{
			"ratings_quantity": quantity,
			"ratings_average":  average,
		}},
	)
	return err
}
