package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/orgpulse/apiserver/config"
	"github.com/orgpulse/apiserver/internal/notify"
	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory user repository backing the handler tests.
type memUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, users: make(map[int]types.User)}
}

func (r *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memUsers) SetActive(_ context.Context, id int, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.IsActive = active
	r.users[id] = user
	return nil
}

func (r *memUsers) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLogin = &at
	r.users[id] = user
	return nil
}

// memDenylist mirrors the first-insert-wins semantics of the persistent
// denylist.
type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]struct{}
}

func newMemDenylist() *memDenylist {
	return &memDenylist{revoked: make(map[string]struct{})}
}

func (d *memDenylist) Revoke(_ context.Context, jti string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.revoked[jti]; ok {
		return store.ErrConflict
	}
	d.revoked[jti] = struct{}{}
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}

type dropMailer struct{}

func (dropMailer) Send(context.Context, notify.Mail) error { return nil }

// testEnv bundles the services and router the handler tests drive.
type testEnv struct {
	users  *memUsers
	tokens *services.TokenService
	router *chi.Mux
	auth   *AuthMiddleware
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUsers()
	tokens := services.NewTokenService("test-secret", 15*time.Minute, time.Hour, users, newMemDenylist())
	registration := services.NewRegistrationService(
		users,
		services.NewActivationTokenGenerator("test-secret", 72*time.Hour),
		services.NewDefaultPasswordPolicy(),
		dropMailer{},
		config.FrontendConfig{Domain: "http://localhost:3000", VerifyPath: "/verify", RedirectPath: "/redirect"},
	)
	userService := services.NewUserService(users)

	auth := NewAuthMiddleware(tokens)
	handler := NewAuthHandler(registration, userService, tokens, false)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, handler, auth)
	})

	return &testEnv{users: users, tokens: tokens, router: router, auth: auth}
}

// seedUser inserts an account directly and returns it.
func (e *testEnv) seedUser(t *testing.T, username, password string, active, admin bool) types.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := e.users.Create(context.Background(), types.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
		IsActive:     active,
		IsAdmin:      admin,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// loginCookies issues a token pair for the user and returns them as the
// cookies a logged-in browser would carry.
func (e *testEnv) loginCookies(t *testing.T, user types.User) []*http.Cookie {
	t.Helper()

	pair, err := e.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return []*http.Cookie{
		{Name: accessTokenCookie, Value: pair.Access},
		{Name: refreshTokenCookie, Value: pair.Refresh},
	}
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
