package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/orgpulse/apiserver/internal/services"
	"github.com/orgpulse/apiserver/internal/store"
)

// AuthHandler provides the registration, activation and token endpoints.
type AuthHandler struct {
	registration *services.RegistrationService
	users        *services.UserService
	tokens       *services.TokenService
	cookieSecure bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	registration *services.RegistrationService,
	users *services.UserService,
	tokens *services.TokenService,
	cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		users:        users,
		tokens:       tokens,
		cookieSecure: cookieSecure,
	}
}

// AuthRouter registers the auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, auth *AuthMiddleware) {
	r.Post("/register", handler.Register)
	r.Get("/verify-email", handler.VerifyEmail)
	r.Post("/verify-email", handler.VerifyEmail)
	r.Post("/token", handler.ObtainToken)
	r.Post("/token/refresh", handler.RefreshToken)
	r.With(auth.RequireAuth).Post("/logout", handler.Logout)
	r.With(auth.RequireAuth).Get("/me", handler.Me)
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type RegisterResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// Register creates a PENDING account and reports the activation redirect.
// The redirect URL repeats the activation token from the mail so the
// client can activate without mailbox access.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.registration.Register(r.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		var validationErr *services.ValidationError
		var conflictErr *services.ConflictError
		switch {
		case errors.As(err, &validationErr):
			writeFieldErrors(w, http.StatusBadRequest, validationErr.Fields)
		case errors.As(err, &conflictErr):
			writeFieldErrors(w, http.StatusBadRequest, map[string][]string{
				conflictErr.Field: {conflictErr.Message},
			})
		default:
			log.Printf("handlers: registration failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{RedirectURL: result.RedirectURL})
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
	UID   int    `json:"uid"`
}

// VerifyEmail activates a PENDING account. Accepts the token and uid in
// the query string (GET) or the JSON body (POST).
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if r.Method == http.MethodGet {
		req.Token = strings.TrimSpace(r.URL.Query().Get("token"))
		req.UID, _ = strconv.Atoi(r.URL.Query().Get("uid"))
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}

	if req.Token == "" || req.UID < 1 {
		writeError(w, http.StatusBadRequest, "token and uid are required")
		return
	}

	if err := h.registration.Verify(r.Context(), req.UID, req.Token); err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, "invalid or expired token")
		default:
			log.Printf("handlers: email verification failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to verify email")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified successfully"})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ObtainToken verifies credentials and sets the access/refresh cookie
// pair. The tokens are never exposed in the body or a readable header.
func (h *AuthHandler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("handlers: login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	pair, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("handlers: token issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create tokens")
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, user)
}

// RefreshToken rotates the refresh cookie: the presented token is
// denylisted and a fresh pair is set. A reused or concurrent-losing
// token gets 401.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pair, err := h.tokens.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		log.Printf("handlers: token refresh failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh tokens")
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]string{"message": "token refreshed"})
}

// Logout denylists the refresh cookie. Malformed or already-revoked
// tokens are client errors, never fatal.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusBadRequest, "missing refresh token")
		return
	}

	if err := h.tokens.Revoke(r.Context(), cookie.Value); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrTokenRevoked):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("handlers: logout failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to log out")
		}
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.Access,
		Path:     "/",
		MaxAge:   int(h.tokens.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.Refresh,
		Path:     "/",
		MaxAge:   int(h.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
