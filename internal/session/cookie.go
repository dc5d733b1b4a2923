package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
)

// CookieName is the name of the browser-session cookie.
const CookieName = "spotshuffle-session"

// session value keys
const (
	keyVerifier    = "code_verifier"
	keyState       = "oauth_state"
	keyAccessToken = "access_token"
	keyTokenType   = "token_type"
	keyExpiry      = "expiry"
)

// NewCookieStore returns a [sessions.CookieStore] whose cookies end with the browser session.
//
// Values are signed and encrypted with keys derived from secret. SameSite=Lax keeps the cookie on the top-level
// redirect back from the authorization server.
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore(deriveKeys(secret)...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Cookie is a request-scoped [Store] backed by a gorilla session. Every write saves the cookie.
type Cookie struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

// Load opens the session for r. A cookie that fails to decode (for example after a key change) yields a fresh session.
func Load(store sessions.Store, w http.ResponseWriter, r *http.Request) (*Cookie, error) {
	sess, err := store.Get(r, CookieName)
	if err != nil && sess == nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &Cookie{sess: sess, w: w, r: r}, nil
}

func (c *Cookie) save() error {
	if err := c.sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (c *Cookie) str(key string) string {
	v, _ := c.sess.Values[key].(string)
	return v
}

func (c *Cookie) SetPending(verifier, state string) error {
	c.sess.Values[keyVerifier] = verifier
	c.sess.Values[keyState] = state
	return c.save()
}

func (c *Cookie) Pending() (string, string, error) {
	verifier := c.str(keyVerifier)
	if verifier == "" {
		return "", "", shared.ErrMissingVerifier
	}
	return verifier, c.str(keyState), nil
}

func (c *Cookie) ClearPending() error {
	delete(c.sess.Values, keyVerifier)
	delete(c.sess.Values, keyState)
	return c.save()
}

func (c *Cookie) SetToken(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: refusing to store an empty token", shared.ErrAuthFailed)
	}
	c.sess.Values[keyAccessToken] = token.AccessToken
	c.sess.Values[keyTokenType] = token.TokenType
	if !token.Expiry.IsZero() {
		c.sess.Values[keyExpiry] = token.Expiry.Unix()
	} else {
		delete(c.sess.Values, keyExpiry)
	}
	return c.save()
}

func (c *Cookie) Token() (*oauth2.Token, error) {
	access := c.str(keyAccessToken)
	if access == "" {
		return nil, shared.ErrNotAuthenticated
	}

	token := &oauth2.Token{AccessToken: access, TokenType: c.str(keyTokenType)}
	if exp, ok := c.sess.Values[keyExpiry].(int64); ok {
		token.Expiry = time.Unix(exp, 0)
	}
	return token, nil
}

func (c *Cookie) Clear() error {
	for k := range c.sess.Values {
		delete(c.sess.Values, k)
	}
	c.sess.Options.MaxAge = -1
	return c.save()
}

// Flash adds a one-time message shown on the next page render. A flash added after [Cookie.Clear] keeps the cookie.
func (c *Cookie) Flash(msg string) error {
	if c.sess.Options.MaxAge < 0 {
		c.sess.Options.MaxAge = 0
	}
	c.sess.AddFlash(msg)
	return c.save()
}

// Flashes pops the pending flash messages.
func (c *Cookie) Flashes() ([]string, error) {
	var out []string
	raw := c.sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out, c.save()
}

var _ Store = (*Cookie)(nil)
