package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// systemActor is attributed to writes that arrive without an identity.
const systemActor = "System"

// Identify attaches JWT claims when a valid bearer token is present. The fee
// surface sits behind the platform gateway, so requests without a token are
// not rejected; their writes are attributed to the system actor.
func Identify(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims := &models.JWTClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Actor returns the acting user's display name for audit attribution.
func Actor(c *gin.Context) string {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return systemActor
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return systemActor
	}
	if claims.Name != "" {
		return claims.Name
	}
	if claims.UserID != "" {
		return claims.UserID
	}
	return systemActor
}
