package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

var errMissingSubject = errors.New("token carries no subject")

// JWTAuthMiddleware accepts HS256 bearer tokens issued by the identity
// provider and stores the caller id under "user_id".
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Missing bearer token.")
			return
		}

		userID, err := parseSubject(strings.TrimSpace(raw), key)
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func parseSubject(raw string, key []byte) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	if v, ok := claims["user_id"]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s, nil
		}
	}
	return "", errMissingSubject
}

// UserID returns the authenticated caller id, empty when absent.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
