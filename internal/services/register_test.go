package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/orgpulse/apiserver/config"
	"github.com/orgpulse/apiserver/internal/notify"
	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
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

func (r *memUserRepo) SetActive(_ context.Context, id int, active bool) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.IsActive = active
	r.users[id] = user
	return nil
}

type captureMailer struct {
	sent []notify.Mail
	err  error
}

func (m *captureMailer) Send(_ context.Context, mail notify.Mail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func newTestRegistration(t *testing.T) (*RegistrationService, *memUserRepo, *captureMailer) {
	t.Helper()
	repo := newMemUserRepo()
	mailer := &captureMailer{}
	svc := NewRegistrationService(
		repo,
		NewActivationTokenGenerator("secret", 72*time.Hour),
		NewDefaultPasswordPolicy(),
		mailer,
		config.FrontendConfig{
			Domain:       "http://localhost:3000",
			VerifyPath:   "/verify",
			RedirectPath: "/redirect",
		},
	)
	return svc, repo, mailer
}

func validInput() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct-horse-battery",
		ConfirmPassword: "correct-horse-battery",
	}
}

func TestRegisterCreatesPendingAccount(t *testing.T) {
	svc, repo, mailer := newTestRegistration(t)

	result, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	stored := repo.users[result.User.ID]
	assert.Equal(t, "alice", stored.Username)
	assert.False(t, stored.IsActive, "account must start pending")
	assert.NotEqual(t, "correct-horse-battery", stored.PasswordHash)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "/verify?token=")
	assert.Contains(t, result.RedirectURL, "/redirect?token=")
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	svc, _, mailer := newTestRegistration(t)

	input := validInput()
	input.ConfirmPassword = "something-else"

	_, err := svc.Register(context.Background(), input)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"Passwords do not match."}, validationErr.Fields["password"])
	assert.Empty(t, mailer.sent)
}

func TestRegisterAggregatesPolicyViolations(t *testing.T) {
	svc, _, _ := newTestRegistration(t)

	input := validInput()
	input.Password = "1234"
	input.ConfirmPassword = "1234"

	_, err := svc.Register(context.Background(), input)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Fields["password"], 2)
}

func TestRegisterReportsUsernameConflictBeforeEmail(t *testing.T) {
	svc, _, _ := newTestRegistration(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	// Same username AND email: username wins.
	_, err = svc.Register(ctx, validInput())
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "username", conflictErr.Field)

	// Fresh username, taken email.
	input := validInput()
	input.Username = "alice2"
	_, err = svc.Register(ctx, input)
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "email", conflictErr.Field)
}

// vanishingConflictRepo loses the insert race but the colliding row is
// gone again by the time the recheck runs.
type vanishingConflictRepo struct {
	*memUserRepo
}

func (r *vanishingConflictRepo) Create(context.Context, types.User) (types.User, error) {
	return types.User{}, store.ErrConflict
}

func TestRegisterConflictWithVanishedRowStaysFieldScoped(t *testing.T) {
	svc, _, _ := newTestRegistration(t)
	svc.users = &vanishingConflictRepo{memUserRepo: newMemUserRepo()}

	_, err := svc.Register(context.Background(), validInput())

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr, "a lost insert race must surface as a field-scoped conflict")
	assert.Equal(t, "username", conflictErr.Field)
	assert.NotErrorIs(t, err, store.ErrConflict)
}

func TestRegisterSurfacesMailerFailure(t *testing.T) {
	svc, _, mailer := newTestRegistration(t)
	mailer.err = errors.New("broker down")

	_, err := svc.Register(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activation mail")
}

func TestVerifyActivatesAccount(t *testing.T) {
	svc, repo, mailer := newTestRegistration(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	token := tokenFromLink(t, mailer.sent[0].Body)
	require.NoError(t, svc.Verify(ctx, result.User.ID, token))
	assert.True(t, repo.users[result.User.ID].IsActive)

	// Activation changed the state the token was derived from, so it is
	// now spent.
	err = svc.Verify(ctx, result.User.ID, token)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestVerifyUnknownUser(t *testing.T) {
	svc, _, _ := newTestRegistration(t)

	err := svc.Verify(context.Background(), 42, "whatever")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyRejectsBadToken(t *testing.T) {
	svc, _, _ := newTestRegistration(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	err = svc.Verify(ctx, result.User.ID, "1abc-deadbeef")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	_, rest, ok := strings.Cut(body, "token=")
	require.True(t, ok, "mail body should carry a token: %q", body)
	token, _, _ := strings.Cut(rest, "&")
	return token
}
