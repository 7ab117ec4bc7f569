package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/phillip/tour-booking-go/config"
	models "github.com/phillip/tour-booking-go/models"
	utils "github.com/phillip/tour-booking-go/utils"
)

// AuthMiddleware verifies the bearer token (header or cookie), loads the
// acting user and attaches its identity to the request context. Tokens issued
// before the user's last password change are rejected.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Error(utils.NewAppError(http.StatusUnauthorized, "You are not logged in. Please, log in to get access"))
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(cfg, tokenString)
		if err != nil {
			c.Error(utils.NewAppError(http.StatusUnauthorized, "Invalid or expired token"))
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.Error(utils.NewAppError(http.StatusUnauthorized, "Invalid token payload"))
			c.Abort()
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var currentUser models.User
		err = col.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{
			"_id":                 1,
			"email":               1,
			"name":                1,
			"role":                1,
			"active":              1,
			"password_changed_at": 1,
		})).Decode(&currentUser)
		if err != nil || !currentUser.Active {
			c.Error(utils.NewAppError(http.StatusNotFound, "Such user does not exist"))
			c.Abort()
			return
		}

		if claims.IssuedAt != nil && currentUser.HasChangedPasswordAfter(claims.IssuedAt.Time) {
			c.Error(utils.NewAppError(http.StatusForbidden, "Invalid token is provided"))
			c.Abort()
			return
		}

		c.Set("user_id", currentUser.ID.Hex())
		c.Set("email", currentUser.Email)
		c.Set("name", currentUser.Name)
		c.Set("role", currentUser.Role)

		c.Next()
	}
}

// RoleGuard allows the request through only when the authenticated user's
// role is in the given allow-list.
func RoleGuard(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.Error(utils.NewAppError(http.StatusForbidden, "You don't have enough rights for the given resource"))
		c.Abort()
	}
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(utils.AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}
