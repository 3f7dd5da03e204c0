package jwtmw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// Verifier validates a session token.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// AuthRequired returns a Gin middleware function that validates session tokens
// and restricts access to authenticated users only.
// Every rejection gets the same response body.
func AuthRequired(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || tokenStr == "" {
			unauthorized(c)
			return
		}

		// 2. Verify signature and expiry
		claims, err := verifier.Verify(tokenStr)
		if err != nil {
			unauthorized(c)
			return
		}

		// 3. Expose the subject to downstream handlers
		c.Set(ContextUserID, claims.SubjectID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// UserIDFrom returns the subject id stored by AuthRequired.
func UserIDFrom(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
