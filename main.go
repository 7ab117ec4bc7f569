package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	config "github.com/phillip/tour-booking-go/config"
	jobs "github.com/phillip/tour-booking-go/jobs"
	middleware "github.com/phillip/tour-booking-go/middleware"
	routes "github.com/phillip/tour-booking-go/routes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	client, err := config.Connect(context.Background(), cfg.DBLink)
	if err != nil {
		log.Fatalf("could not connect to the database: %v", err)
	}
	cfg.MongoClient = client
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("disconnect error: %v", err)
		}
	}()

	if err := config.EnsureIndexes(context.Background(), cfg); err != nil {
		log.Fatalf("could not ensure indexes: %v", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@daily", jobs.RecalculateAllTourRatings(cfg)); err != nil {
		log.Fatalf("could not schedule ratings sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.ErrorFunnel())

	routes.SetupRoutes(r, cfg)

	log.Printf("Server is up and running on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
