package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
)

// Claims carried by user-facing JWTs.
type Claims struct {
	UserID    int64 `json:"user_id"`
	IsPremium bool  `json:"is_premium"`
	jwt.RegisteredClaims
}

// Auth validates a Bearer JWT and sets user_id and is_premium on the
// request context.
func Auth(cfg *config.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortUnauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenParts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Get().Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Warn("Invalid JWT token")
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("is_premium", claims.IsPremium)
		c.Next()
	}
}

// APIKey gates internal endpoints on a static key list.
func APIKey(cfg *config.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			abortUnauthorized(c, "MISSING_API_KEY", "X-API-Key header is required")
			return
		}

		for _, valid := range cfg.Get().Auth.APIKeys {
			if key == valid {
				c.Next()
				return
			}
		}

		logger.WithField("client_ip", c.ClientIP()).Warn("Invalid API key")
		abortUnauthorized(c, "INVALID_API_KEY", "Invalid API key")
	}
}

// PremiumFromContext reads the premium flag set by Auth; requests outside
// the authed group read as non-premium.
func PremiumFromContext(c *gin.Context) bool {
	if v, ok := c.Get("is_premium"); ok {
		if premium, ok := v.(bool); ok {
			return premium
		}
	}
	return strings.EqualFold(c.Query("isPremium"), "true")
}

// UserIDParam parses the userId path parameter. The bool is false for
// non-integer input, which candidate endpoints treat as an empty result.
func UserIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}
