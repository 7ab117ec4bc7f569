package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	utils "github.com/phillip/tour-booking-go/utils"
)

func funnelRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorFunnel())

	r.GET("/operational", func(c *gin.Context) {
		c.Error(utils.NewAppError(http.StatusNotFound, "No document found with the given id"))
		c.Abort()
	})
	r.GET("/internal", func(c *gin.Context) {
		c.Error(errors.New("connection reset by peer"))
		c.Abort()
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	return r
}

func doRequest(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFunnelRendersOperationalError(t *testing.T) {
	w, body := doRequest(t, funnelRouter(), "/operational")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No document found with the given id", body["message"])
}

func TestFunnelHidesInternalErrorDetail(t *testing.T) {
	w, body := doRequest(t, funnelRouter(), "/internal")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.NotContains(t, body["message"], "connection reset")
}

func TestFunnelLeavesSuccessAlone(t *testing.T) {
	w, body := doRequest(t, funnelRouter(), "/ok")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", body["status"])
}

func TestAppErrorStatusClassification(t *testing.T) {
	assert.Equal(t, "fail", utils.NewAppError(http.StatusBadRequest, "x").Status())
	assert.Equal(t, "fail", utils.NewAppError(http.StatusNotFound, "x").Status())
	assert.Equal(t, "error", utils.NewAppError(http.StatusInternalServerError, "x").Status())
}
