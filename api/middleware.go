package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/auth"
	"github.com/lucacel82/luccacell/internal/logger"
)

const (
	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// Authenticate requires a valid bearer token and stores its subject as the
// request owner.
func Authenticate(tokens *auth.TokenService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeaderKey)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		owner, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "token has expired"
			}
			logger.FromContext(c, log).Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		c.Set(logger.OwnerIDKey, owner)
		c.Next()
	}
}

// ownerID returns the authenticated owner of the request.
func ownerID(c *gin.Context) string {
	return c.GetString(logger.OwnerIDKey)
}
