package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userContextKey = "contactbookUser"

// Middleware validates bearer tokens and injects the authenticated user.
// Handlers behind it must take the caller from RequireUser and nowhere else.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			abortUnauthorized(c, "invalid authorization header")
			return
		}

		user, err := service.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				abortUnauthorized(c, "invalid or expired token")
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// SetCurrentUser records user as the caller of the request.
func SetCurrentUser(c *gin.Context, user User) {
	c.Set(userContextKey, user)
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return User{}, false
	}
	user, ok := value.(User)
	return user, ok
}

// RequireUser returns the authenticated caller's identifier.
func RequireUser(c *gin.Context) (uuid.UUID, User, bool) {
	user, ok := CurrentUser(c)
	if !ok || user.ID == uuid.Nil {
		return uuid.Nil, User{}, false
	}
	return user.ID, user, true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
