package controllers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/phillip/tour-booking-go/config"
	models "github.com/phillip/tour-booking-go/models"
	utils "github.com/phillip/tour-booking-go/utils"
)

// Earth radii used to convert a distance into a $centerSphere radius.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

// notSecret excludes secret tours from every default read and aggregate.
func notSecret() bson.M {
	return bson.M{"is_secret": bson.M{"$ne": true}}
}

// ---------------- LIST ----------------
func GetTours(cfg *config.Config) gin.HandlerFunc {
	return listHandler(cfg, "tours",
		func(c *gin.Context) (bson.M, error) { return notSecret(), nil },
		(*models.Tour).FillDerived,
	)
}

// ---------------- CREATE ----------------
func AddTour(cfg *config.Config) gin.HandlerFunc {
	return createHandler(cfg, "tours", newTourFixup, nil)
}

func newTourFixup(c *gin.Context, t *models.Tour) error {
	now := time.Now()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.RatingsAverage = models.DefaultRatingsAverage
	t.RatingsQuantity = models.DefaultRatingsQuantity
	if t.Rating == 0 {
		t.Rating = models.DefaultRatingsAverage
	}

	return tourWriteFixups(t)
}

func updateTourFixup(c *gin.Context, original, t *models.Tour) error {
	t.CreatedAt = original.CreatedAt
	t.UpdatedAt = time.Now()
	return tourWriteFixups(t)
}

// tourWriteFixups holds the steps the original ran as persistence hooks:
// slug derivation, GeoJSON defaults and the discount constraint.
func tourWriteFixups(t *models.Tour) error {
	t.Slug = slug.Make(t.Name)

	if len(t.StartLocation.Coordinates) > 0 && t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}

	if !t.ValidateDiscount() {
		return utils.NewAppError(http.StatusBadRequest, "The price discount cannot be higher than the price itself")
	}

	// never persist derived or looked-up fields
	t.DurationWeeks = 0
	t.Reviews = nil
	t.GuideDetails = nil

	return nil
}

// ---------------- GET ----------------
func GetTour(cfg *config.Config) gin.HandlerFunc {
	return getHandler(cfg, "tours", notSecret(), loadTourWithRelations(cfg), (*models.Tour).FillDerived)
}

// loadTourWithRelations fetches one tour with its reviews and guide
// projections attached via $lookup.
func loadTourWithRelations(cfg *config.Config) func(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	return func(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
		match := notSecret()
		match["_id"] = id

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: match}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "reviews",
				"localField":   "_id",
				"foreignField": "tour",
				"as":           "reviews",
			}}},
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "guides",
				"foreignField": "_id",
				"as":           "guide_details",
			}}},
		}

		cursor, err := cfg.MongoClient.Database(cfg.DBName).Collection("tours").Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}

		var tours []models.Tour
		if err := cursor.All(ctx, &tours); err != nil {
			return nil, err
		}
		if len(tours) == 0 {
			return nil, mongo.ErrNoDocuments
		}

		return &tours[0], nil
	}
}

// ---------------- UPDATE ----------------
func UpdateTour(cfg *config.Config) gin.HandlerFunc {
	return updateHandler(cfg, "tours", updateTourFixup, nil)
}

// ---------------- DELETE ----------------
func DeleteTour(cfg *config.Config) gin.HandlerFunc {
	return deleteHandler(cfg, "tours", func(ctx context.Context, t *models.Tour) error {
		removeTourImages(cfg, tourImageURLs(t))
		return nil
	})
}

func tourImageURLs(t *models.Tour) []string {
	urls := append([]string(nil), t.Images...)
	if t.ImageCover != "" {
		urls = append(urls, t.ImageCover)
	}
	return urls
}

// removeTourImages is best effort: the document write already went through,
// so a failed destroy only leaves an orphaned Cloudinary asset.
func removeTourImages(cfg *config.Config, urls []string) {
	for _, u := range urls {
		if err := utils.DeleteFromCloudinary(cfg, u); err != nil {
			log.Printf("cloudinary cleanup: %s: %v", u, err)
		}
	}
}

// ---------------- TOP ----------------

// SelectTop rewrites the query before the generic listing runs: top 3 tours
// by the requested criterion (price by default), descending.
func SelectTop() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.URL.RawQuery = RewriteTopQuery(c.Request.URL.Query()).Encode()
		c.Next()
	}
}

func RewriteTopQuery(params url.Values) url.Values {
	criterion := params.Get("criterion")
	if criterion == "" {
		criterion = "price"
	}

	rewritten := url.Values{}
	rewritten.Set("sort", "-"+criterion)
	rewritten.Set("limit", "3")
	if fields := params.Get("fields"); fields != "" {
		rewritten.Set("fields", fields)
	}

	return rewritten
}

// ---------------- STATS ----------------
func GetStats(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: notSecret()}},
			bson.D{{Key: "$match", Value: bson.M{"rating": bson.M{"$gte": 3.5}}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":       bson.M{"$toUpper": "$difficulty"},
				"count":     bson.M{"$sum": 1},
				"avgPrice":  bson.M{"$avg": "$price"},
				"avgRating": bson.M{"$avg": "$rating"},
				"maxPrice":  bson.M{"$max": "$price"},
				"minPrice":  bson.M{"$min": "$price"},
			}}},
			bson.D{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := cfg.MongoClient.Database(cfg.DBName).Collection("tours").Aggregate(ctx, pipeline)
		if err != nil {
			fail(c, err)
			return
		}

		var stats []bson.M
		if err := cursor.All(ctx, &stats); err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   stats,
		})
	}
}

// ---------------- PLAN ----------------
func GetPlan(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := strconv.Atoi(c.Param("year"))
		if err != nil || year <= 0 {
			year = time.Now().Year()
		}

		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: notSecret()}},
			bson.D{{Key: "$unwind", Value: "$start_dates"}},
			bson.D{{Key: "$match", Value: bson.M{
				"start_dates": bson.M{"$gte": from, "$lte": to},
			}}},
			bson.D{{Key: "$group", Value: bson.M{
				"_id":   bson.M{"$month": "$start_dates"},
				"count": bson.M{"$sum": 1},
				"tours": bson.M{"$push": "$name"},
			}}},
			bson.D{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
			bson.D{{Key: "$project", Value: bson.M{"_id": 0}}},
			bson.D{{Key: "$sort", Value: bson.M{"month": 1}}},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := cfg.MongoClient.Database(cfg.DBName).Collection("tours").Aggregate(ctx, pipeline)
		if err != nil {
			fail(c, err)
			return
		}

		var plan []bson.M
		if err := cursor.All(ctx, &plan); err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   plan,
		})
	}
}

// ---------------- GEO SEARCH ----------------
func GetToursWithin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		distance, err := strconv.ParseFloat(c.Param("distance"), 64)
		if err != nil || distance < 0 {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Distance must be a non-negative number"))
			return
		}

		lat, lng, err := parseLocation(c.Param("location"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Location must be provided as lat,lng"))
			return
		}

		radius := distance / earthRadiusKm
		if c.Param("unit") == "mi" {
			radius = distance / earthRadiusMiles
		}

		filter := notSecret()
		filter["start_location"] = bson.M{
			"$geoWithin": bson.M{"$centerSphere": bson.A{bson.A{lng, lat}, radius}},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := cfg.MongoClient.Database(cfg.DBName).Collection("tours").Find(ctx, filter)
		if err != nil {
			fail(c, err)
			return
		}

		tours := make([]models.Tour, 0)
		if err := cursor.All(ctx, &tours); err != nil {
			fail(c, err)
			return
		}
		for i := range tours {
			tours[i].FillDerived()
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   tours,
		})
	}
}

func GetTourDistances(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, lng, err := parseLocation(c.Param("location"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Please, provide correct location as lat,lng"))
			return
		}

		multiplier := metersToKm
		if c.Param("unit") == "mi" {
			multiplier = metersToMiles
		}

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$geoNear", Value: bson.M{
				"near": bson.M{
					"type":        "Point",
					"coordinates": bson.A{lng, lat},
				},
				"distanceField":      "distance",
				"distanceMultiplier": multiplier,
				"spherical":          true,
				"query":              notSecret(),
			}}},
			bson.D{{Key: "$project", Value: bson.M{
				"distance": 1,
				"name":     1,
			}}},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := cfg.MongoClient.Database(cfg.DBName).Collection("tours").Aggregate(ctx, pipeline)
		if err != nil {
			fail(c, err)
			return
		}

		var distances []bson.M
		if err := cursor.All(ctx, &distances); err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   distances,
		})
	}
}

func parseLocation(raw string) (float64, float64, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, utils.NewAppError(http.StatusBadRequest, "invalid location")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}

	return lat, lng, nil
}

// ---------------- IMAGES ----------------

// UploadTourImages pushes gallery images and optionally replaces the cover
// image on an existing tour.
func UploadTourImages(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Invalid tour id"))
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("tours")
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var existing models.Tour
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
			if err == mongo.ErrNoDocuments {
				fail(c, utils.NewAppError(http.StatusNotFound, "No tour found with the given id"))
				return
			}
			fail(c, err)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "invalid form data"))
			return
		}

		var imageURLs []string
		for _, fileHeader := range form.File["images"] {
			file, err := fileHeader.Open()
			if err != nil {
				fail(c, utils.NewAppError(http.StatusInternalServerError, "failed to open file"))
				return
			}

			url, err := utils.UploadToCloudinary(cfg, file)
			file.Close()
			if err != nil {
				fail(c, err)
				return
			}

			imageURLs = append(imageURLs, url)
		}

		var coverURL string
		if covers := form.File["cover"]; len(covers) > 0 {
			file, err := covers[0].Open()
			if err != nil {
				fail(c, utils.NewAppError(http.StatusInternalServerError, "failed to open file"))
				return
			}

			coverURL, err = utils.UploadToCloudinary(cfg, file)
			file.Close()
			if err != nil {
				fail(c, err)
				return
			}
		}

		if len(imageURLs) == 0 && coverURL == "" {
			fail(c, utils.NewAppError(http.StatusBadRequest, "no images provided"))
			return
		}

		update := bson.M{"$set": bson.M{"updated_at": time.Now()}}
		if coverURL != "" {
			update["$set"].(bson.M)["image_cover"] = coverURL
		}
		if len(imageURLs) > 0 {
			update["$push"] = bson.M{"images": bson.M{"$each": imageURLs}}
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
			fail(c, err)
			return
		}

		if coverURL != "" && existing.ImageCover != "" {
			removeTourImages(cfg, []string{existing.ImageCover})
		}

		var updated models.Tour
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&updated); err != nil {
			fail(c, err)
			return
		}
		updated.FillDerived()

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   updated,
		})
	}
}
