package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/tour-booking-go/models"
	utils "github.com/phillip/tour-booking-go/utils"
)

func reviewTestContext(t *testing.T, userID primitive.ObjectID, role string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPatch, "/api/v1/reviews", nil)
	c.Set("user_id", userID.Hex())
	c.Set("role", role)
	return c
}

func TestReviewScopeWithoutRouteParam(t *testing.T) {
	c := reviewTestContext(t, primitive.NewObjectID(), models.RoleUser)

	base, err := reviewScope(c)
	require.NoError(t, err)
	assert.Empty(t, base)
}

func TestReviewScopeNestedRoute(t *testing.T) {
	tourID := primitive.NewObjectID()
	c := reviewTestContext(t, primitive.NewObjectID(), models.RoleUser)
	c.Params = gin.Params{{Key: "id", Value: tourID.Hex()}}

	base, err := reviewScope(c)
	require.NoError(t, err)
	assert.Equal(t, tourID, base["tour"])
}

func TestReviewScopeRejectsBadTourID(t *testing.T) {
	c := reviewTestContext(t, primitive.NewObjectID(), models.RoleUser)
	c.Params = gin.Params{{Key: "id", Value: "not-an-object-id"}}

	_, err := reviewScope(c)
	require.Error(t, err)

	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestUpdateReviewFixupOwnership(t *testing.T) {
	author := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	original := models.Review{User: author, Tour: primitive.NewObjectID()}

	c := reviewTestContext(t, stranger, models.RoleUser)
	patched := original
	err := updateReviewFixup(c, &original, &patched)
	require.Error(t, err)

	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.StatusCode)
}

func TestUpdateReviewFixupAdminBypass(t *testing.T) {
	original := models.Review{User: primitive.NewObjectID(), Tour: primitive.NewObjectID()}

	c := reviewTestContext(t, primitive.NewObjectID(), models.RoleAdmin)
	patched := original
	assert.NoError(t, updateReviewFixup(c, &original, &patched))
}

func TestUpdateReviewFixupRestoresReferences(t *testing.T) {
	author := primitive.NewObjectID()
	tour := primitive.NewObjectID()
	original := models.Review{User: author, Tour: tour}

	// the merge let the body repoint the references
	patched := models.Review{
		User:   primitive.NewObjectID(),
		Tour:   primitive.NewObjectID(),
		Rating: 5,
	}

	c := reviewTestContext(t, author, models.RoleUser)
	require.NoError(t, updateReviewFixup(c, &original, &patched))

	assert.Equal(t, author, patched.User)
	assert.Equal(t, tour, patched.Tour)
	assert.Equal(t, 5.0, patched.Rating)
}
