package app

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"calendar-availability/internal/config"
	"calendar-availability/internal/logging"
)

const participantKey = "participant"

// AuthMiddleware accepts HMAC-signed JWTs or static tokens. The email (or
// subject) claim of a JWT, or the email mapped to a static token, becomes
// the request's participant identity.
func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) gin.HandlerFunc {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		// JWT path
		if jwtSecret != "" {
			identity, err := identityFromJWT(tokenStr, jwtSecret)
			if err == nil {
				c.Set(participantKey, identity)
				c.Next()
				return
			}
			logger.Debug("jwt rejected", logging.Err(err))
		}

		// static tokens
		if email, ok := cfg.StaticTokens[tokenStr]; ok {
			c.Set(participantKey, email)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

func identityFromJWT(tokenStr, secret string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil {
		return "", err
	}

	if email, ok := claims["email"].(string); ok && email != "" {
		return email, nil
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sub, nil
}

// Participant returns the authenticated identity set by AuthMiddleware.
func Participant(c *gin.Context) string {
	return c.GetString(participantKey)
}
