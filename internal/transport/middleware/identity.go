package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuedesk/backend/internal/entity"
)

const actorKey = "actor"

// Identity extracts the caller from the X-User-ID / X-User-Name headers set
// by the authentication gateway. Requests without an id are rejected before
// any handler runs.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   entity.ErrUnauthorized.Error(),
			})
			return
		}
		name := c.GetHeader("X-User-Name")
		if name == "" {
			name = id
		}
		c.Set(actorKey, entity.Actor{ID: id, Name: name})
		c.Next()
	}
}

// Actor returns the caller stored by Identity. Handlers behind the middleware
// can rely on it being present.
func Actor(c *gin.Context) entity.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return entity.Actor{}
	}
	actor, _ := v.(entity.Actor)
	return actor
}
