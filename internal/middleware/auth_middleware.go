package middleware

import (
	"net/http"
	"strings"

	"groundlink/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const actorContextKey = "actor"

// JWTClaims are the claims the identity provider signs into access
// tokens. Roles arrive as plain strings and are mapped onto the actor
// model here, never downstream.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// AuthRequired validates the bearer token and stores the ActorContext
// for handlers to pass into core operations.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			c.Abort()
			return
		}

		actor := models.ActorContext{ID: userID}
		for _, role := range claims.Roles {
			switch models.Role(role) {
			case models.RoleUser, models.RoleAdmin, models.RoleDriver:
				actor.Roles = append(actor.Roles, models.Role(role))
			}
		}
		if len(actor.Roles) == 0 {
			actor.Roles = []models.Role{models.RoleUser}
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// AdminRequired ensures the actor carries the admin role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !actor.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// DriverRequired ensures the actor carries the driver role.
func DriverRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !actor.IsDriver() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Driver access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetActor fetches the ActorContext set by AuthRequired.
func GetActor(c *gin.Context) (models.ActorContext, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return models.ActorContext{}, false
	}

	actor, ok := value.(models.ActorContext)
	return actor, ok
}
