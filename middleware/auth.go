package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quetzal/model"
	"quetzal/services"
	"quetzal/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUsername    = "username"
	ContextEmail       = "email"
	ContextRole        = "role"
	ContextToken       = "token"
	ContextTokenExpiry = "token_expires_at"
)

func AuthMiddleware(tokens *services.TokenService, blacklist services.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the token from the header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Unauthorized(c, "Missing or invalid token")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		// Check if token is blacklisted
		revoked, err := blacklist.IsBlacklisted(c.Request.Context(), tokenString)
		if err != nil {
			TrackError("auth")
			utils.ServiceUnavailable(c, "Unable to verify token")
			return
		}
		if revoked {
			utils.Unauthorized(c, "Token has been invalidated")
			return
		}

		claims, err := tokens.ParseJWT(tokenString)
		if err != nil {
			utils.Unauthorized(c, "Invalid token")
			return
		}

		c.Set(ContextUsername, claims.Username)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireStaff must run after AuthMiddleware. Only the staff account email
// passes.
func RequireStaff(staffEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			utils.Unauthorized(c, "Authentication required")
			return
		}
		if staffEmail == "" || !strings.EqualFold(claims.Email, staffEmail) {
			utils.Forbidden(c, "Staff access required")
			return
		}
		c.Next()
	}
}

func ClaimsFromContext(c *gin.Context) (model.Claims, bool) {
	username := c.GetString(ContextUsername)
	if username == "" {
		return model.Claims{}, false
	}
	role, _ := c.Get(ContextRole)
	r, _ := role.(model.Role)
	return model.Claims{
		Username: username,
		Email:    c.GetString(ContextEmail),
		Role:     r,
	}, true
}

// TokenFromContext returns the raw bearer token and its expiry.
func TokenFromContext(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(ContextToken)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, c.GetTime(ContextTokenExpiry), true
}
