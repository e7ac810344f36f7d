package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/apperr"
	"studentrecords/internal/session"
)

// SessionKey is the gin context key holding the *session.Session of an
// authenticated request.
const SessionKey = "session"

const sessionHeader = "X-Session-ID"

type Authenticator interface {
	Authenticate(token string) (*session.Session, error)
}

// RequestTokens lists the session tokens presented on r, in the order they
// are tried: the session cookie, a bearer Authorization header, then
// X-Session-ID. Empty and repeated tokens are left out.
func RequestTokens(r *http.Request, cookie *SessionCookie) []string {
	var tokens []string
	add := func(token string) {
		token = strings.TrimSpace(token)
		if token == "" {
			return
		}
		for _, t := range tokens {
			if t == token {
				return
			}
		}
		tokens = append(tokens, token)
	}

	add(cookie.Token(r))
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		add(strings.TrimPrefix(auth, "Bearer "))
	}
	add(r.Header.Get(sessionHeader))
	return tokens
}

// Authenticate returns the session of the first presented token that is
// still live. A stale cookie does not hide a valid header token.
func Authenticate(auth Authenticator, r *http.Request, cookie *SessionCookie) (*session.Session, error) {
	tokens := RequestTokens(r, cookie)
	if len(tokens) == 0 {
		return auth.Authenticate("")
	}
	var err error
	for _, token := range tokens {
		var sess *session.Session
		if sess, err = auth.Authenticate(token); err == nil {
			return sess, nil
		}
	}
	return nil, err
}

// RequireAuth rejects requests without a live session and stores the
// session in the gin context for handlers.
func RequireAuth(auth Authenticator, cookie *SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := Authenticate(auth, c.Request, cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session stored by RequireAuth.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
