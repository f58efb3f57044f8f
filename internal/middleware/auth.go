package middleware

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"releasedesk/internal/credentials"
	"releasedesk/internal/domain/session"
)

// TokenResolver loads the OAuth token behind a session token.
type TokenResolver interface {
	Resolve(ctx context.Context, raw string) (*oauth2.Token, *session.Session, error)
}

// SessionAuth attaches the caller's Google token to the request context.
// It never rejects a request: without a usable session the downstream call
// runs unauthenticated and the remote service reports it.
func SessionAuth(resolver TokenResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := session.TokenFromRequest(c, cookieName)
		if raw == "" {
			c.Next()
			return
		}

		tok, sess, err := resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			logAuthFailure(c, err)
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(credentials.WithToken(c.Request.Context(), tok))
		c.Set("session_id", sess.ID)
		c.Set("email", sess.Email)
		c.Next()
	}
}

func logAuthFailure(c *gin.Context, err error) {
	log.Printf("session_auth method=%s path=%s request_id=%s reason=%q", c.Request.Method, c.Request.URL.Path, requestID(c), err.Error())
}
