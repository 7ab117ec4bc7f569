package controllers

import (
	"context"
	"fmt"
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

func usersCollection(cfg *config.Config) *mongo.Collection {
	return cfg.MongoClient.Database(cfg.DBName).Collection("users")
}

// ---------------- SIGNUP ----------------
func SignUp(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email           string `json:"email"`
			Name            string `json:"name"`
			Password        string `json:"password"`
			PasswordConfirm string `json:"passwordConfirm"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, err.Error()))
			return
		}

		if input.Password != input.PasswordConfirm {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Passwords do not match"))
			return
		}

		newUser := models.User{
			ID:        primitive.NewObjectID(),
			Email:     input.Email,
			Name:      input.Name,
			Password:  input.Password,
			Role:      models.RoleUser,
			Active:    true,
			CreatedAt: time.Now(),
		}

		if err := utils.ValidateStruct(&newUser); err != nil {
			fail(c, err)
			return
		}

		if err := newUser.SetPassword(input.Password); err != nil {
			fail(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		if _, err := usersCollection(cfg).InsertOne(ctx, newUser); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				fail(c, utils.NewAppError(http.StatusConflict, "A user with this email already exists"))
				return
			}
			fail(c, err)
			return
		}

		token, err := utils.SignToken(cfg, newUser.ID.Hex())
		if err != nil {
			fail(c, err)
			return
		}
		utils.SetTokenCookie(c, cfg, token)

		c.JSON(http.StatusCreated, gin.H{
			"status": "success",
			"data": gin.H{
				"id":    newUser.ID.Hex(),
				"email": newUser.Email,
				"name":  newUser.Name,
				"token": token,
			},
		})
	}
}

// ---------------- LOGIN ----------------
func LogIn(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" || input.Password == "" {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Please, provide correct email and password"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var currentUser models.User
		err := usersCollection(cfg).FindOne(ctx, bson.M{"email": input.Email}).Decode(&currentUser)
		if err != nil || !currentUser.Active || !currentUser.CheckPassword(input.Password) {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Invalid email or password"))
			return
		}

		token, err := utils.SignToken(cfg, currentUser.ID.Hex())
		if err != nil {
			fail(c, err)
			return
		}
		utils.SetTokenCookie(c, cfg, token)

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"token":  token,
		})
	}
}

// ---------------- UPDATE ME ----------------

// UpdateMe changes the current user's name and/or password. A password change
// requires the current password and re-issues the token, invalidating every
// token signed before the change.
func UpdateMe(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name            string `json:"name"`
			Password        string `json:"password"`
			PasswordConfirm string `json:"passwordConfirm"`
			CurrentPassword string `json:"currentPassword"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, err.Error()))
			return
		}

		if input.Name == "" && input.CurrentPassword == "" {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Incorrect payload is provided"))
			return
		}

		userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusUnauthorized, "invalid user id"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var currentUser models.User
		if err := usersCollection(cfg).FindOne(ctx, bson.M{"_id": userID}).Decode(&currentUser); err != nil {
			fail(c, utils.NewAppError(http.StatusNotFound, "Such user does not exist"))
			return
		}

		update := bson.M{}

		if input.CurrentPassword != "" {
			if !currentUser.CheckPassword(input.CurrentPassword) {
				fail(c, utils.NewAppError(http.StatusBadRequest, "Incorrect password data is passed"))
				return
			}
			if len(input.Password) < 8 || input.Password != input.PasswordConfirm {
				fail(c, utils.NewAppError(http.StatusBadRequest, "New passwords must match and be at least 8 characters"))
				return
			}

			if err := currentUser.SetPassword(input.Password); err != nil {
				fail(c, err)
				return
			}
			update["password"] = currentUser.Password
			update["password_changed_at"] = time.Now()
		}

		if input.Name != "" {
			update["name"] = input.Name
		}

		if _, err := usersCollection(cfg).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": update}); err != nil {
			fail(c, err)
			return
		}

		token, err := utils.SignToken(cfg, userID.Hex())
		if err != nil {
			fail(c, err)
			return
		}
		utils.SetTokenCookie(c, cfg, token)

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"token": token,
			},
		})
	}
}

// ---------------- DISABLE ME ----------------

// DisableMe soft-deletes the current user by clearing the active flag.
func DisableMe(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusUnauthorized, "invalid user id"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		_, err = usersCollection(cfg).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"active": false}})
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"email":   c.GetString("email"),
				"name":    c.GetString("name"),
				"deleted": true,
			},
		})
	}
}

// ---------------- LIST ----------------
func ListUsers(cfg *config.Config) gin.HandlerFunc {
	return listHandler[models.User](cfg, "users",
		func(c *gin.Context) (bson.M, error) {
			return bson.M{"active": bson.M{"$ne": false}}, nil
		},
		nil,
	)
}

// ---------------- PASSWORD RESET ----------------

// ForgetPassword issues a single-use reset token and emails it as a link.
// When the mail cannot be sent the token is cleared; the user retries by
// submitting a fresh request.
func ForgetPassword(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email string `json:"email"`
		}

		if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Please, provide an email"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var currentUser models.User
		if err := usersCollection(cfg).FindOne(ctx, bson.M{"email": input.Email}).Decode(&currentUser); err != nil {
			fail(c, utils.NewAppError(http.StatusNotFound, "No user found"))
			return
		}

		resetToken, err := currentUser.NewPasswordResetToken()
		if err != nil {
			fail(c, err)
			return
		}

		_, err = usersCollection(cfg).UpdateOne(ctx, bson.M{"_id": currentUser.ID}, bson.M{"$set": bson.M{
			"password_reset_token":   currentUser.PasswordResetToken,
			"password_reset_expires": currentUser.PasswordResetExpires,
		}})
		if err != nil {
			fail(c, err)
			return
		}

		scheme := "https"
		if c.Request.TLS == nil {
			scheme = "http"
		}
		resetURL := fmt.Sprintf("%s://%s/api/v1/users/password/reset/%s", scheme, c.Request.Host, resetToken)
		message := fmt.Sprintf(
			"You sent a reset password request. You can complete your password reset procedure by following the given link: %s. "+
				"If you haven't submitted any request, check your credentials security to make sure that your private data has not been leaked.",
			resetURL,
		)

		if err := utils.SendEmail(cfg, currentUser.Email, "Reset token for password reset", message); err != nil {
			// single-use token becomes unusable once the send failed
			_, clearErr := usersCollection(cfg).UpdateOne(ctx, bson.M{"_id": currentUser.ID}, bson.M{"$unset": bson.M{
				"password_reset_token":   "",
				"password_reset_expires": "",
			}})
			if clearErr != nil {
				fail(c, clearErr)
				return
			}

			fail(c, utils.NewAppError(http.StatusInternalServerError, "Please, try again. Reset token has not been sent"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "The reset token has been sent to your email. Please, check it",
		})
	}
}

// ResetPassword completes the reset: the plain token from the link must hash
// to a stored, unexpired reset token.
func ResetPassword(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Password        string `json:"password"`
			PasswordConfirm string `json:"passwordConfirm"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, err.Error()))
			return
		}

		if len(input.Password) < 8 || input.Password != input.PasswordConfirm {
			fail(c, utils.NewAppError(http.StatusBadRequest, "New passwords must match and be at least 8 characters"))
			return
		}

		hashed := models.HashResetToken(c.Param("token"))

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var currentUser models.User
		err := usersCollection(cfg).FindOne(ctx, bson.M{
			"password_reset_token":   hashed,
			"password_reset_expires": bson.M{"$gt": time.Now()},
		}).Decode(&currentUser)
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Token is invalid or has expired"))
			return
		}

		if err := currentUser.SetPassword(input.Password); err != nil {
			fail(c, err)
			return
		}

		_, err = usersCollection(cfg).UpdateOne(ctx, bson.M{"_id": currentUser.ID}, bson.M{
			"$set": bson.M{
				"password":            currentUser.Password,
				"password_changed_at": time.Now(),
			},
			"$unset": bson.M{
				"password_reset_token":   "",
				"password_reset_expires": "",
			},
		})
		if err != nil {
			fail(c, err)
			return
		}

		token, err := utils.SignToken(cfg, currentUser.ID.Hex())
		if err != nil {
			fail(c, err)
			return
		}
		utils.SetTokenCookie(c, cfg, token)

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"token":  token,
		})
	}
}
