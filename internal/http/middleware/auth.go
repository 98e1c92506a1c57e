package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/platform/logger"
	"github.com/julihealth/wellness-backend/internal/requestdata"
)

// AuthMiddleware validates bearer tokens issued by the auth service and
// attaches the authenticated user to the request context. Token issuance
// itself lives outside this service.
type AuthMiddleware struct {
	log       *logger.Logger
	jwtSecret []byte
}

func NewAuthMiddleware(log *logger.Logger, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:       log.With("middleware", "AuthMiddleware"),
		jwtSecret: []byte(jwtSecret),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		userID, err := am.parseSubject(tokenString)
		if err != nil {
			am.log.Debug("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid token", "code": "unauthorized"},
			})
			return
		}

		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			TokenString: tokenString,
			UserID:      userID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) parseSubject(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return am.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("empty subject")
	}
	return userID, nil
}

func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
