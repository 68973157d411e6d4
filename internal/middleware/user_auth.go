package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserAuth validates user JWT tokens and injects the userId into the context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			log.Println("[AUTH] [ERROR] missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		userID, err := userIDFromBearer(raw, secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// OptionalUser resolves the caller's identity when an Authorization header
// is present and rejects only malformed tokens. Guests pass through with no
// userId set; POST /api/orders relies on this.
func OptionalUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		userID, err := userIDFromBearer(raw, secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// UserIDFromContext pulls the authenticated user id set by UserAuth or
// OptionalUser. The second return is false for guests.
func UserIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}

func userIDFromBearer(raw, secret string) (primitive.ObjectID, error) {
	claims, err := parseBearer(raw, secret)
	if err != nil {
		return primitive.NilObjectID, err
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return primitive.NilObjectID, errMissingUserClaim
	}

	return primitive.ObjectIDFromHex(userIDValue)
}

var errMissingUserClaim = errors.New("userId claim missing")
