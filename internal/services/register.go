package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orgpulse/apiserver/config"
	"github.com/orgpulse/apiserver/internal/notify"
	"github.com/orgpulse/apiserver/internal/store"
	"github.com/orgpulse/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// ConflictError reports a uniqueness violation on a named field.
// Distinct from ValidationError: the input is well-formed, the value is
// just taken.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Field, e.Message)
}

// RegistrationUserRepository is the slice of the user store the
// registration flow needs.
type RegistrationUserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetActive(ctx context.Context, id int, active bool) error
}

// ActivationNotifier dispatches the activation mail envelope.
type ActivationNotifier interface {
	Send(ctx context.Context, mail notify.Mail) error
}

// RegisterInput is the registration request payload.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// RegistrationResult is returned on successful registration. RedirectURL
// carries the same activation token and uid the mail does, so a client
// can complete activation without mailbox access. Deliberate, not a
// leak.
type RegistrationResult struct {
	User        types.User
	RedirectURL string
}

// RegistrationService orchestrates account creation and email-verified
// activation. Accounts start PENDING (inactive) and transition to ACTIVE
// exactly once, through Verify.
type RegistrationService struct {
	users    RegistrationUserRepository
	tokens   *ActivationTokenGenerator
	policy   PasswordValidator
	mailer   ActivationNotifier
	frontend config.FrontendConfig
}

func NewRegistrationService(
	users RegistrationUserRepository,
	tokens *ActivationTokenGenerator,
	policy PasswordValidator,
	mailer ActivationNotifier,
	frontend config.FrontendConfig,
) *RegistrationService {
	return &RegistrationService{
		users:    users,
		tokens:   tokens,
		policy:   policy,
		mailer:   mailer,
		frontend: frontend,
	}
}

// Register creates a PENDING account and dispatches the activation link.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (RegistrationResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" {
		return RegistrationResult{}, NewValidationError("username", "This field is required.")
	}
	if email == "" {
		return RegistrationResult{}, NewValidationError("email", "This field is required.")
	}

	if input.Password != input.ConfirmPassword {
		return RegistrationResult{}, NewValidationError("password", "Passwords do not match.")
	}

	if violations := s.policy.Validate(input.Password, UserAttributes{Username: username, Email: email}); len(violations) > 0 {
		return RegistrationResult{}, NewValidationError("password", violations...)
	}

	// Username collision is checked (and reported) before email.
	if err := s.checkAvailable(ctx, username, email); err != nil {
		return RegistrationResult{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegistrationResult{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		IsActive:     false,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent registration; report the
			// colliding field with the same precedence as above. When the
			// colliding row vanished before the recheck, still report a
			// conflict on the first-precedence field rather than leak the
			// bare store error.
			if checkErr := s.checkAvailable(ctx, username, email); checkErr != nil {
				return RegistrationResult{}, checkErr
			}
			return RegistrationResult{}, &ConflictError{Field: "username", Message: "This username is already taken."}
		}
		return RegistrationResult{}, err
	}

	token := s.tokens.MakeToken(user)

	verificationLink := fmt.Sprintf("%s%s?token=%s&uid=%d", s.frontend.Domain, s.frontend.VerifyPath, token, user.ID)
	if err := s.mailer.Send(ctx, notify.Mail{
		To:      email,
		Subject: "Verify Your Email",
		Body:    "Click the link to verify your email: " + verificationLink,
	}); err != nil {
		return RegistrationResult{}, fmt.Errorf("dispatch activation mail: %w", err)
	}

	return RegistrationResult{
		User:        user,
		RedirectURL: fmt.Sprintf("%s%s?token=%s&uid=%d", s.frontend.Domain, s.frontend.RedirectPath, token, user.ID),
	}, nil
}

// Verify recomputes the expected activation token from the user's
// current state and, on match, transitions the account to ACTIVE. Any
// state change since issuance makes the presented token invalid.
func (s *RegistrationService) Verify(ctx context.Context, uid int, token string) error {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return err
	}

	if !s.tokens.CheckToken(user, token) {
		return NewValidationError("token", "Invalid or expired token.")
	}

	return s.users.SetActive(ctx, user.ID, true)
}

func (s *RegistrationService) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return &ConflictError{Field: "username", Message: "This username is already taken."}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return &ConflictError{Field: "email", Message: "This email is already registered."}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	return nil
}
