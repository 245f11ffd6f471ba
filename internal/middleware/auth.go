package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/pkg/models"
)

const (
	AuthContextKey = "user_id"
)

var jwtSecret string

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SetJWTSecret sets the JWT secret for the middleware
func SetJWTSecret(secret string) {
	jwtSecret = secret
}

// JWTAuth middleware validates JWT tokens
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apierror.Respond(c, apierror.Unauthorized("Authorization header required"))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			apierror.Respond(c, apierror.Unauthorized("Invalid authorization format"))
			return
		}

		claims, err := parseToken(parts[1])
		if err != nil {
			apierror.Respond(c, apierror.Unauthorized("Invalid or expired token"))
			return
		}

		// Add user ID to context
		c.Set(AuthContextKey, claims.UserID)
		c.Next()
	}
}

// APIKeyValidator resolves raw API keys to users
type APIKeyValidator interface {
	ValidateAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// APIKeyAuth middleware validates API keys
func APIKeyAuth(validator APIKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			apierror.Respond(c, apierror.Unauthorized("API key required"))
			return
		}

		user, err := validator.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil || user == nil || !user.IsActive {
			apierror.Respond(c, apierror.Unauthorized("Invalid API key"))
			return
		}

		c.Set(AuthContextKey, user.ID)
		c.Next()
	}
}

// EitherAuth middleware accepts a bearer token or an API key
func EitherAuth(validator APIKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try JWT first
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := parseToken(parts[1]); err == nil {
					c.Set(AuthContextKey, claims.UserID)
					c.Next()
					return
				}
			}
		}

		// Try API key
		apiKey := c.GetHeader("X-API-Key")
		if apiKey != "" {
			user, err := validator.ValidateAPIKey(c.Request.Context(), apiKey)
			if err == nil && user != nil && user.IsActive {
				c.Set(AuthContextKey, user.ID)
				c.Next()
				return
			}
		}

		apierror.Respond(c, apierror.Unauthorized("Valid authentication required"))
	}
}

func parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GenerateToken generates a JWT token for a user
func GenerateToken(userID, email string, expiresIn time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GetUserID retrieves the user ID from the context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(AuthContextKey)
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok
}
