package auth

import (
	"net/http"
	"nextext/contract"
	"nextext/domain"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Interceptor guards REST routes with an "Authorization: Bearer <token>" header.
// On success the caller's id is stored in the gin context under UserIDKey.
func Interceptor(validator contract.IAuthValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))

		result := validator.Validate(c.Request.Context(), token)
		userID, ok := result.Identity()
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail": "Could not validate credentials",
				"reason": result.Reason(),
			})
			return
		}

		c.Set(string(UserIDKey), userID)
		c.Next()
	}
}

// BearerToken extracts the token of a "Bearer <token>" header value, or "" if absent.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserIDFrom returns the identity stored by Interceptor.
func UserIDFrom(c *gin.Context) (domain.UserID, bool) {
	value, ok := c.Get(string(UserIDKey))
	if !ok {
		return 0, false
	}
	userID, ok := value.(domain.UserID)
	return userID, ok
}
