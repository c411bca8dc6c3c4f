package auth

import (
	"net/http"
	"time"
)

// MockAuth signs every visitor in as a development admin, so local runs need
// no identity provider.
type MockAuth struct {
	sessions *sessionStore
	user     User
}

// NewMockAuth creates a new mock authentication handler
func NewMockAuth() *MockAuth {
	return &MockAuth{
		sessions: newSessionStore(),
		user: User{
			ID:       "dev-user-123",
			Email:    "dev@psl-draft.local",
			Name:     "Dev User",
			Username: "devuser",
			Groups:   []string{"users", adminGroup},
		},
	}
}

// LoginHandler auto-creates a session
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	user := m.user
	session := m.sessions.create(&user, nil, 24*time.Hour)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Expires:  session.ExpiresAt,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CallbackHandler is not needed for mock auth
func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler for mock auth
func (m *MockAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	m.sessions.logout(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Middleware for mock auth
func (m *MockAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return m.sessions.require(next)
}

// Identify for mock auth
func (m *MockAuth) Identify(next http.Handler) http.Handler {
	return m.sessions.identify(next)
}
