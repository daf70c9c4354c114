package middleware

import (
	"net/http"
	"strings"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader names the operator on whose behalf the request is made
	UserIDHeader = "X-User-ID"

	// ActorKey is the key used to store the request actor in the gin context
	ActorKey = "actor"

	maxUserIDLength = 255
)

// Identity attaches the calling operator to the request context. Credentials are
// verified upstream; requests without an operator id are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" || len(userID) > maxUserIDLength {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "The " + UserIDHeader + " header is required",
				},
				"correlation_id": GetCorrelationID(c),
			})
			return
		}

		actor := shared.Actor{
			UserID:        userID,
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
			CorrelationID: GetCorrelationID(c),
		}
		c.Set(ActorKey, actor)
		c.Request = c.Request.WithContext(shared.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// GetUserID returns the authenticated operator id, if any
func GetUserID(c *gin.Context) string {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(shared.Actor); ok {
			return actor.UserID
		}
	}
	return ""
}
