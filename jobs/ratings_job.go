package jobs

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/phillip/tour-booking-go/config"
	controllers "github.com/phillip/tour-booking-go/controllers"
	models "github.com/phillip/tour-booking-go/models"
)

// RecalculateAllTourRatings sweeps every tour and recomputes its cached
// ratings from the review set. The per-write recomputation is not atomic with
// the triggering review write, so the sweep repairs any drift that window
// leaves behind.
func RecalculateAllTourRatings(cfg *config.Config) func() {
	return func() {
		log.Println("Running job: RecalculateAllTourRatings...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		col := cfg.MongoClient.Database(cfg.DBName).Collection("tours")
		cursor, err := col.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			log.Printf("ratings sweep: could not list tours: %v", err)
			return
		}

		var tours []models.Tour
		if err := cursor.All(ctx, &tours); err != nil {
			log.Printf("ratings sweep: could not decode tours: %v", err)
			return
		}

		repaired := 0
		for _, tour := range tours {
			if err := controllers.RecalculateTourRatings(ctx, cfg, tour.ID); err != nil {
				log.Printf("ratings sweep: tour %s: %v", tour.ID.Hex(), err)
				continue
			}
			repaired++
		}

		log.Printf("ratings sweep: recomputed %d of %d tours", repaired, len(tours))
	}
}
