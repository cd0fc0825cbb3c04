package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenClaims are the signed claims carried by both token flavors.
// Refresh tokens additionally carry a unique ID (jti) so rotation can
// denylist each one individually.
type TokenClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token set issued together.
type TokenPair struct {
	Access  string
	Refresh string
}

// Denylist records consumed and revoked refresh token ids. Revoke must
// be atomic: when two callers present the same id, exactly one insert
// succeeds and the loser sees store.ErrConflict.
type Denylist interface {
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenSubjectSource resolves token subjects back to users.
type TokenSubjectSource interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// TokenService issues, validates, rotates and revokes the bearer
// credentials of the system.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      TokenSubjectSource
	denylist   Denylist
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, users TokenSubjectSource, denylist Denylist) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
		denylist:   denylist,
	}
}

// AccessTTL exposes the configured access token lifetime, used for
// cookie expiry.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL exposes the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue signs a fresh access/refresh pair for the user.
func (s *TokenService) Issue(user types.User) (TokenPair, error) {
	now := time.Now()
	subject := strconv.Itoa(user.ID)

	access, err := s.sign(TokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.sign(TokenClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Validate checks an access token and resolves its subject. It fails
// with ErrInvalidToken when the signature is bad, the token expired, the
// token is not an access token, or the subject is missing or inactive.
func (s *TokenService) Validate(ctx context.Context, accessToken string) (types.User, error) {
	claims, err := s.parse(accessToken, tokenTypeAccess)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.subjectUser(ctx, claims)
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Refresh rotates a refresh token: the presented token's id is added to
// the denylist and a brand new pair is issued. A token whose id is
// already denylisted, or that loses the insert race to a concurrent
// refresh, fails with ErrInvalidToken.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if revoked {
		return TokenPair{}, ErrInvalidToken
	}

	user, err := s.subjectUser(ctx, claims)
	if err != nil {
		return TokenPair{}, err
	}

	// The insert is the arbiter: a concurrent refresh of the same token
	// loses here, not at the advisory check above.
	if err := s.denylist.Revoke(ctx, claims.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}

	return s.Issue(user)
}

// Revoke adds the refresh token's id to the denylist, as logout does.
// Malformed tokens fail with ErrInvalidToken and already-revoked ones
// with ErrTokenRevoked; both are client errors.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}

	if err := s.denylist.Revoke(ctx, claims.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrTokenRevoked
		}
		return err
	}
	return nil
}

func (s *TokenService) sign(claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString, wantType string) (TokenClaims, error) {
	claims := TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return TokenClaims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return TokenClaims{}, ErrInvalidToken
	}
	if wantType == tokenTypeRefresh && strings.TrimSpace(claims.ID) == "" {
		return TokenClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) subjectUser(ctx context.Context, claims TokenClaims) (types.User, error) {
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id < 1 {
		return types.User{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidToken
		}
		return types.User{}, err
	}
	if !user.IsActive {
		return types.User{}, ErrInvalidToken
	}
	return user, nil
}
