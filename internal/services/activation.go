package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orgpulse/apiserver/types"
)

// ActivationTokenGenerator derives one-time activation tokens from user
// state. Tokens are never stored: verification recomputes the expected
// token from the user's current state and compares. Because the active
// flag and last-login feed the digest, activating the account (or
// logging in) permanently invalidates every previously issued token.
type ActivationTokenGenerator struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func NewActivationTokenGenerator(secret string, ttl time.Duration) *ActivationTokenGenerator {
	return &ActivationTokenGenerator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// MakeToken issues a token bound to the user's current state, salted
// with the issue time so the validity window can be enforced without
// storage.
func (g *ActivationTokenGenerator) MakeToken(user types.User) string {
	timestamp := g.now().Unix()
	return g.tokenAt(user, timestamp)
}

// CheckToken reports whether token matches the user's current state and
// is still inside the validity window. The digest comparison is
// constant-time.
func (g *ActivationTokenGenerator) CheckToken(user types.User, token string) bool {
	timestampPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	timestamp, err := strconv.ParseInt(timestampPart, 36, 64)
	if err != nil {
		return false
	}

	expected := g.tokenAt(user, timestamp)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return false
	}

	age := g.now().Unix() - timestamp
	return age >= 0 && time.Duration(age)*time.Second <= g.ttl
}

func (g *ActivationTokenGenerator) tokenAt(user types.User, timestamp int64) string {
	var lastLogin int64
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.Unix()
	}

	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%d:%t:%d:%d", user.ID, user.IsActive, lastLogin, timestamp)
	digest := hex.EncodeToString(mac.Sum(nil))[:32]

	return strconv.FormatInt(timestamp, 36) + "-" + digest
}
