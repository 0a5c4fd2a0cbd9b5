package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mealboard/internal/auth"
	"mealboard/internal/mutate"
)

// ClientIDHeader carries the per-tab client identity on every mutating
// request. Absence is tolerated: the originating tab then sees its own
// event as foreign and needlessly re-fetches.
const ClientIDHeader = "x-client-id"

// authenticate resolves the bearer token into an identity and stashes it,
// together with the request's client id, in the gin context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		identity, err := s.auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("identity", identity)
		c.Set("clientID", c.GetHeader(ClientIDHeader))
		c.Next()
	}
}

// caller reassembles the mutation caller from the gin context.
func caller(c *gin.Context) mutate.Caller {
	identity, _ := c.Get("identity")
	id, _ := identity.(auth.Identity)
	return mutate.Caller{Identity: id, ClientID: c.GetString("clientID")}
}
