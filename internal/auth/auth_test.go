package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

func init() {
	logger.Init("")
}

type teamPasswords map[string]string

func (t teamPasswords) TeamPassword(name string) (string, bool) {
	p, ok := t[name]
	return p, ok
}

func TestGateCheckTeam(t *testing.T) {
	g := NewGate(teamPasswords{"Lahore Qalandars": "lahore123"}, "admin123")

	if err := g.CheckTeam("Lahore Qalandars", "lahore123"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}

	var access *AccessError
	if err := g.CheckTeam("Lahore Qalandars", "nope"); !errors.As(err, &access) {
		t.Errorf("wrong password: got %v, want AccessError", err)
	}

	var verr *models.ValidationError
	if err := g.CheckTeam("Quetta Gladiators", "x"); !errors.As(err, &verr) {
		t.Errorf("unknown team: got %v, want ValidationError", err)
	}
}

func TestGateCheckAdmin(t *testing.T) {
	g := NewGate(teamPasswords{}, "admin123")
	ctx := context.Background()

	if err := g.CheckAdmin(ctx, "admin123"); err != nil {
		t.Errorf("admin password rejected: %v", err)
	}
	if err := g.CheckAdmin(ctx, "admin"); err == nil {
		t.Error("wrong admin password accepted")
	}

	admin := WithUser(ctx, &User{Username: "ops", Groups: []string{"admins"}})
	if err := g.CheckAdmin(admin, ""); err != nil {
		t.Errorf("admin session rejected: %v", err)
	}

	viewer := WithUser(ctx, &User{Username: "fan", Groups: []string{"users"}})
	if err := g.CheckAdmin(viewer, ""); err == nil {
		t.Error("non-admin session accepted")
	}

	noPassword := NewGate(teamPasswords{}, "")
	if err := noPassword.CheckAdmin(ctx, ""); err == nil {
		t.Error("empty admin password must not match an empty configured password")
	}
}

func TestIsAdmin(t *testing.T) {
	if IsAdmin(nil) {
		t.Error("nil user is not an admin")
	}
	if IsAdmin(&User{Groups: []string{"users"}}) {
		t.Error("users group is not admin")
	}
	if !IsAdmin(&User{Groups: []string{"users", "admins"}}) {
		t.Error("admins group should be admin")
	}
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestMockAuthFlow(t *testing.T) {
	m := NewMockAuth()

	var seen *User
	protected := m.Middleware(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r)
	})

	rec := httptest.NewRecorder()
	protected(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("anonymous request: code=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	m.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	cookie := sessionCookieFrom(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	protected(httptest.NewRecorder(), req)
	if !IsAdmin(seen) {
		t.Fatalf("mock session user should be admin, got %+v", seen)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(cookie)
	m.LogoutHandler(rec, req)
	if m.sessions.count() != 0 {
		t.Error("logout should drop the session")
	}
}

func TestIdentifyNeverBlocks(t *testing.T) {
	m := NewMockAuth()

	called := false
	h := m.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if GetUser(r) != nil {
			t.Error("anonymous request should carry no user")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "stale"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("Identify should always call the next handler")
	}
}

func newFakeAuthentik(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/application/o/token/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/application/o/userinfo/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":                "u-1",
			"email":              "ops@psl.example",
			"name":               "Ops",
			"preferred_username": "ops",
			"groups":             []string{"admins"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthentikLoginRedirect(t *testing.T) {
	a := NewAuthentikAuth(&AuthentikConfig{
		BaseURL:     "https://sso.example/",
		ClientID:    "psl",
		RedirectURL: "http://localhost:3000/auth/callback",
	})

	rec := httptest.NewRecorder()
	a.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect: %v", err)
	}
	if loc.Host != "sso.example" || loc.Path != "/application/o/authorize/" {
		t.Errorf("redirect = %s", loc)
	}
	if loc.Query().Get("client_id") != "psl" || loc.Query().Get("state") == "" {
		t.Errorf("redirect query = %v", loc.Query())
	}
}

func TestAuthentikCallback(t *testing.T) {
	srv := newFakeAuthentik(t)
	a := NewAuthentikAuth(&AuthentikConfig{
		BaseURL:      srv.URL,
		ClientID:     "psl",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/auth/callback",
	})

	callback := func(state, cookieState, code string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state+"&code="+code, nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})
		}
		rec := httptest.NewRecorder()
		a.CallbackHandler(rec, req)
		return rec
	}

	if rec := callback("s1", "", "good-code"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing state cookie: code=%d", rec.Code)
	}
	if rec := callback("s1", "s2", "good-code"); rec.Code != http.StatusBadRequest {
		t.Errorf("state mismatch: code=%d", rec.Code)
	}
	if rec := callback("s1", "s1", "bad-code"); rec.Code != http.StatusBadGateway {
		t.Errorf("bad code: code=%d", rec.Code)
	}

	rec := callback("s1", "s1", "good-code")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback code=%d body=%s", rec.Code, strings.TrimSpace(rec.Body.String()))
	}
	cookie := sessionCookieFrom(t, rec)

	var seen *User
	h := a.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.Username != "ops" || !IsAdmin(seen) {
		t.Fatalf("session user = %+v", seen)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(cookie)
	a.LogoutHandler(rec, req)
	if want := srv.URL + "/application/o/psl-draft/end-session/"; rec.Header().Get("Location") != want {
		t.Errorf("logout redirect = %q, want %q", rec.Header().Get("Location"), want)
	}
}
