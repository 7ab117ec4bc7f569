package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/phillip/tour-booking-go/config"
	middleware "github.com/phillip/tour-booking-go/middleware"
	models "github.com/phillip/tour-booking-go/models"
)

func getTourRouter(loader func(ctx context.Context, id primitive.ObjectID) (*models.Tour, error)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorFunnel())
	r.GET("/tours/:id", getHandler(&config.Config{}, "tours", nil, loader, nil))
	return r
}

func fetchTour(t *testing.T, r *gin.Engine) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours/"+primitive.NewObjectID().Hex(), nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestGetHandlerMissingDocumentIsNotFound(t *testing.T) {
	w, body := fetchTour(t, getTourRouter(func(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
		return nil, mongo.ErrNoDocuments
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No document found with the given id", body["message"])
}

func TestGetHandlerNilDocumentIsNotFound(t *testing.T) {
	w, body := fetchTour(t, getTourRouter(func(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
		return nil, nil
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body["status"])
}

func TestGetHandlerLoaderFailureIsInternal(t *testing.T) {
	w, body := fetchTour(t, getTourRouter(func(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
		return nil, errors.New("connection to replica set lost")
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.NotContains(t, body["message"], "replica set")
}
