// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting identity of a request. The marketplace does
// not authenticate callers; a client names the identity it acts for with the
// X-Actor-ID header, and downstream middleware (logging, rate limiting,
// idempotency) keys on that value.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderActorID carries the identity id (e.g. "U1000") the caller acts for.
const HeaderActorID = "X-Actor-ID"

// ctxKeyActorID is the Gin context key under which the actor id is stored.
const ctxKeyActorID = "actorID"

// maxActorIDLen bounds the header value accepted as an actor id.
const maxActorIDLen = 64

// Actor copies a well-formed X-Actor-ID header into the Gin context.
// Oversized or blank values are ignored, leaving the request anonymous.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(HeaderActorID)); id != "" && len(id) <= maxActorIDLen {
			c.Set(ctxKeyActorID, id)
		}
		c.Next()
	}
}

// ActorFrom returns the actor id attached by Actor, falling back to the raw
// header when the middleware did not run. It returns "" for anonymous calls.
func ActorFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(ctxKeyActorID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if id := strings.TrimSpace(c.GetHeader(HeaderActorID)); len(id) <= maxActorIDLen {
			return id
		}
	}
	return ""
}
