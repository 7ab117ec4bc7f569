package utils

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	config "github.com/phillip/tour-booking-go/config"
)

const AccessTokenCookie = "accessToken"

// Claims carries the authenticated user id alongside the registered set.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// SignToken issues a token for the given user id with the configured validity.
func SignToken(cfg *config.Config, userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTValidity)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// VerifyToken checks signature and expiry and returns the parsed claims.
func VerifyToken(cfg *config.Config, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// SetTokenCookie mirrors the response-body token into an httpOnly cookie.
func SetTokenCookie(c *gin.Context, cfg *config.Config, token string) {
	c.SetCookie(AccessTokenCookie, token, int(cfg.JWTValidity.Seconds()), "/", "", true, true)
}
