package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const tokenKey = "token"

// SessionCookie carries the opaque session token in a signed cookie. The
// cookie holds nothing else; identity lives in the server-side session.
type SessionCookie struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionCookie builds the cookie codec. hashKey signs the cookie and
// blockKey, when non-empty, encrypts it.
func NewSessionCookie(name string, secure bool, hashKey, blockKey []byte) *SessionCookie {
	var store *sessions.CookieStore
	if len(blockKey) > 0 {
		store = sessions.NewCookieStore(hashKey, blockKey)
	} else {
		store = sessions.NewCookieStore(hashKey)
	}
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionCookie{store: store, name: name}
}

func (c *SessionCookie) Name() string {
	return c.name
}

// Token returns the token stored in the request cookie, or "" when the
// cookie is missing or fails verification.
func (c *SessionCookie) Token(r *http.Request) string {
	if _, err := r.Cookie(c.name); err != nil {
		return ""
	}
	sess, err := c.store.Get(r, c.name)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

func (c *SessionCookie) Set(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := c.store.New(r, c.name)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// Clear tells the client to drop the cookie.
func (c *SessionCookie) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.New(r, c.name)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
