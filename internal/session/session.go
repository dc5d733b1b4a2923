// Package session holds the per-login state of the PKCE flow: the pending verifier and state, then the access token.
//
// Access points are fixed: the authorization step writes the pending values, the token exchange reads them,
// stores the token and clears them, and the playlist fetch reads the token.
// Nothing here outlives the session: [Memory] lives for one process, [Cookie] for one browser session.
package session

import (
	"sync"

	"github.com/desertthunder/spotshuffle/internal/shared"
	"golang.org/x/oauth2"
)

// Store is the session context passed to the components of the login and shuffle flow.
type Store interface {
	// SetPending records the verifier and state of a login that has been handed off to the authorization server.
	SetPending(verifier, state string) error
	// Pending returns the verifier and state or [shared.ErrMissingVerifier].
	Pending() (verifier, state string, err error)
	// ClearPending discards the verifier and state after an exchange.
	ClearPending() error
	// SetToken stores the access token.
	SetToken(token *oauth2.Token) error
	// Token returns the access token or [shared.ErrNotAuthenticated].
	Token() (*oauth2.Token, error)
	// Clear forgets everything (logout).
	Clear() error
}

// Memory is a [Store] for a single process, used by the CLI and TUI.
//
// The loopback callback runs on the HTTP server goroutine, so access is guarded.
type Memory struct {
	mu       sync.Mutex
	verifier string
	state    string
	token    *oauth2.Token
}

// NewMemory returns an empty [Memory] store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SetPending(verifier, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifier, m.state = verifier, state
	return nil
}

func (m *Memory) Pending() (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verifier == "" {
		return "", "", shared.ErrMissingVerifier
	}
	return m.verifier, m.state, nil
}

func (m *Memory) ClearPending() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifier, m.state = "", ""
	return nil
}

func (m *Memory) SetToken(token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || m.token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return m.token, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifier, m.state, m.token = "", "", nil
	return nil
}

var _ Store = (*Memory)(nil)
