package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func postJSON(router http.Handler, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return doRequest(router, req)
}

func register(t *testing.T, env *testEnv, username string) string {
	t.Helper()

	rec := postJSON(env.router, "/auth/register", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "correct-horse-battery",
		"confirm_password": "correct-horse-battery",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp RegisterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.RedirectURL
}

func verify(t *testing.T, env *testEnv, redirectURL string) {
	t.Helper()

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		t.Fatalf("parse redirect url: %v", err)
	}
	token := parsed.Query().Get("token")
	uid := parsed.Query().Get("uid")

	rec := doRequest(env.router, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/auth/verify-email?token=%s&uid=%s", url.QueryEscape(token), uid), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
}

func login(t *testing.T, env *testEnv, username, password string) []*http.Cookie {
	t.Helper()

	rec := postJSON(env.router, "/auth/token", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	redirectURL := register(t, env, "alice")
	if !strings.Contains(redirectURL, "/redirect?token=") {
		t.Fatalf("redirect url = %q", redirectURL)
	}

	// Login before verification fails: the account is still pending.
	rec := postJSON(env.router, "/auth/token", map[string]string{
		"username": "alice",
		"password": "correct-horse-battery",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("pre-verify login status = %d, want 401", rec.Code)
	}

	verify(t, env, redirectURL)

	cookies := login(t, env, "alice", "correct-horse-battery")
	if cookieByName(cookies, accessTokenCookie) == nil {
		t.Error("login should set the access cookie")
	}
	if cookieByName(cookies, refreshTokenCookie) == nil {
		t.Error("login should set the refresh cookie")
	}
}

func TestRegisterDuplicateReportsFieldError(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice")

	rec := postJSON(env.router, "/auth/register", map[string]string{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "correct-horse-battery",
		"confirm_password": "correct-horse-battery",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var fields map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("decode field errors: %v", err)
	}
	if len(fields["username"]) == 0 {
		t.Errorf("expected a username field error, got %v", fields)
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(env.router, "/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "1234",
		"confirm_password": "1234",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var fields map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("decode field errors: %v", err)
	}
	if len(fields["password"]) < 2 {
		t.Errorf("expected aggregated password violations, got %v", fields)
	}
}

func TestVerifyEmailUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(env.router, httptest.NewRequest(http.MethodGet, "/auth/verify-email?token=1abc-dead&uid=42", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestObtainTokenNeverExposesTokensInBody(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct-horse-battery", true, false)

	rec := postJSON(env.router, "/auth/token", map[string]string{
		"username": "alice",
		"password": "correct-horse-battery",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	access := cookieByName(rec.Result().Cookies(), accessTokenCookie)
	if access == nil || access.Value == "" {
		t.Fatal("access cookie missing")
	}
	if !access.HttpOnly {
		t.Error("access cookie must be HttpOnly")
	}
	if strings.Contains(rec.Body.String(), access.Value) {
		t.Error("token leaked into the response body")
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash leaked into the response body")
	}
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct-horse-battery", true, false)
	cookies := login(t, env, "alice", "correct-horse-battery")
	oldRefresh := cookieByName(cookies, refreshTokenCookie)

	rec := postJSON(env.router, "/auth/token/refresh", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	newRefresh := cookieByName(rec.Result().Cookies(), refreshTokenCookie)
	if newRefresh == nil || newRefresh.Value == oldRefresh.Value {
		t.Fatal("refresh should rotate the refresh cookie")
	}

	// Replaying the consumed token is rejected.
	rec = postJSON(env.router, "/auth/token/refresh", nil, cookies)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", rec.Code)
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(env.router, "/auth/token/refresh", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct-horse-battery", true, false)
	cookies := login(t, env, "alice", "correct-horse-battery")

	rec := postJSON(env.router, "/auth/logout", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d: %s", rec.Code, rec.Body.String())
	}

	// Both cookies come back expired.
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cleared := cookieByName(rec.Result().Cookies(), name)
		if cleared == nil || cleared.MaxAge >= 0 {
			t.Errorf("%s cookie should be expired after logout", name)
		}
	}

	// The refresh token is spent; a second logout reports a client error.
	rec = postJSON(env.router, "/auth/logout", nil, cookies)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second logout status = %d, want 400", rec.Code)
	}

	// And it cannot be exchanged for a new pair.
	rec = postJSON(env.router, "/auth/token/refresh", nil, cookies)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d, want 401", rec.Code)
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct-horse-battery", true, false)
	cookies := login(t, env, "alice", "correct-horse-battery")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := doRequest(env.router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["username"] != "alice" {
		t.Errorf("username = %v, want alice", body["username"])
	}
}
